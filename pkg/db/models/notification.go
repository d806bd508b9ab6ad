package models

import (
	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// Notification is an in-app notification addressed to one user. The optional
// references carry just enough context for the client to render a deep link.
type Notification struct {
	EntityHeader

	UserID uuid.UUID              `gorm:"type:uuid;not null;index:ix_notifications_user_created"`
	Kind   enums.NotificationType `gorm:"size:32;not null"`

	SenderID       *uuid.UUID `gorm:"type:uuid"`
	Sender         *User      `gorm:"foreignKey:SenderID"`
	ApplicationID  *uuid.UUID `gorm:"type:uuid"`
	JobID          *uuid.UUID `gorm:"type:uuid"`
	TenderID       *uuid.UUID `gorm:"type:uuid"`
	FilterID       *uuid.UUID `gorm:"type:uuid"`
	ConversationID *uuid.UUID `gorm:"type:uuid"`

	Seen bool `gorm:"not null;default:false"`
}
