package models

import (
	"time"

	"github.com/google/uuid"
)

// File is the metadata row for a post attachment. Filename is the opaque,
// system-generated name of the physical file in the attachment directory.
// Avatar files are not File rows; users reference them by bare filename.
type File struct {
	BaseModel
	Filename   string     `json:"filename" gorm:"type:varchar(255);uniqueIndex;not null"`
	FileType   string     `json:"fileType" gorm:"type:varchar(255);not null"`
	Size       int64      `json:"size" gorm:"not null;default:0"`
	UploadDate time.Time  `json:"uploadDate" gorm:"not null"`
	PostID     *uuid.UUID `json:"postID,omitempty" gorm:"type:uuid;uniqueIndex"`
}
