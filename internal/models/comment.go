package models

import "github.com/google/uuid"

type Comment struct {
	BaseModel
	UserID  uuid.UUID `json:"userID" gorm:"type:uuid;not null;index"`
	PostID  uuid.UUID `json:"postID" gorm:"type:uuid;not null;index"`
	Content string    `json:"content" gorm:"type:text;not null"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}
