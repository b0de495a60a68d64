package models

import "github.com/google/uuid"

type Post struct {
	BaseModel
	UserID  uuid.UUID `json:"userID" gorm:"type:uuid;not null;index"`
	Content string    `json:"content" gorm:"type:text;not null"`

	User     User      `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Comments []Comment `json:"-" gorm:"foreignKey:PostID"`
	Likes    []Like    `json:"-" gorm:"foreignKey:PostID"`
	File     *File     `json:"file,omitempty" gorm:"foreignKey:PostID"`

	CommentCount int64 `json:"commentCount" gorm:"-"`
	LikeCount    int64 `json:"likeCount" gorm:"-"`
}
