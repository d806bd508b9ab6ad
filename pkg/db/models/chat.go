package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// Conversation is a two-party chat thread. A pair of users has at most one
// live conversation; leaving soft-removes the membership and a later resolve
// resurrects the same row instead of creating a duplicate.
type Conversation struct {
	EntityHeader

	Participants  []ConversationParticipant `gorm:"foreignKey:ConversationID"`
	LastMessageAt *time.Time
}

// ConversationParticipant links a user to a conversation. IsRemoved on the
// membership means the user left; the conversation row itself stays.
type ConversationParticipant struct {
	EntityHeader

	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_conversation_user"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_conversation_user"`
	User           *User     `gorm:"foreignKey:UserID"`
}

// ChatMessage is one message in a conversation. Attachment points at a Media
// row for non-text content types.
type ChatMessage struct {
	EntityHeader

	ConversationID uuid.UUID                  `gorm:"type:uuid;not null;index:ix_chat_messages_conversation_created"`
	SenderID       uuid.UUID                  `gorm:"type:uuid;not null"`
	Sender         *User                      `gorm:"foreignKey:SenderID"`
	ContentType    enums.MessageContentType   `gorm:"size:32;not null;default:'text'"`
	Message        string                     `gorm:"type:text"`
	AttachmentID   *uuid.UUID                 `gorm:"type:uuid"`
	Attachment     *Media                     `gorm:"foreignKey:AttachmentID"`
	IsRead         bool                       `gorm:"not null;default:false"`
}
