package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityHeader is embedded once by every persisted entity. Soft delete is
// expressed through IsRemoved; default queries must filter it out.
type EntityHeader struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	IsRemoved bool      `gorm:"column:is_removed;not null;default:false" json:"-"`
}

// BeforeCreate assigns the UUID primary key when the caller did not.
func (h *EntityHeader) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
