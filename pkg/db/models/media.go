package models

import (
	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// Media is an uploaded file: profile images, resumes, posting attachments and
// chat attachments all reference rows here.
type Media struct {
	EntityHeader

	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind        enums.MediaKind `gorm:"size:32;not null"`
	FileName    string          `gorm:"size:512;not null"`
	ContentType string          `gorm:"size:255;not null"`
	SizeBytes   int64           `gorm:"not null;default:0"`
	StoragePath string          `gorm:"size:1024;not null"`
}
