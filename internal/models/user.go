package models

type User struct {
	BaseModel
	Email        string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string  `json:"-" gorm:"type:text;not null"`
	DisplayName  string  `json:"displayName" gorm:"type:varchar(100);not null"`
	Bio          string  `json:"bio,omitempty" gorm:"type:text"`
	Avatar       *string `json:"avatar,omitempty" gorm:"type:varchar(255)"`

	Posts    []Post    `json:"-" gorm:"foreignKey:UserID"`
	Comments []Comment `json:"-" gorm:"foreignKey:UserID"`
	Likes    []Like    `json:"-" gorm:"foreignKey:UserID"`
}
