package models

import "github.com/google/uuid"

// A user can like a post at most once; the composite unique index enforces it
// at the store level.
type Like struct {
	BaseModel
	UserID uuid.UUID `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post"`
	PostID uuid.UUID `json:"postID" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_post;index"`
}

func (Like) TableName() string {
	return "likes"
}
