package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// Repository persists conversations, memberships and messages.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBetween locates the conversation for an unordered user pair, including
// soft-removed rows so a resolve can resurrect instead of duplicating.
func (r *Repository) FindBetween(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	var conversationID uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Select("conversation_participants.conversation_id").
		Joins("JOIN conversation_participants other ON other.conversation_id = conversation_participants.conversation_id AND other.user_id = ?", b).
		Where("conversation_participants.user_id = ?", a).
		Limit(1).
		Scan(&conversationID).Error
	if err != nil {
		return nil, err
	}
	if conversationID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var conversation models.Conversation
	err = r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.User").
		Where("id = ?", conversationID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// Create inserts a conversation with both memberships.
func (r *Repository) Create(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	conversation := &models.Conversation{
		Participants: []models.ConversationParticipant{
			{UserID: a},
			{UserID: b},
		},
	}
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// Resurrect clears the removed flags on the conversation and both
// memberships.
func (r *Repository) Resurrect(ctx context.Context, conversationID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("is_removed", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ?", conversationID).
			Update("is_removed", false).Error
	})
}

// FindByID loads a live conversation with participants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.User").
		Where("id = ? AND is_removed = FALSE", id).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ListForUser returns the user's live conversations, most recently active
// first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Conversation, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Joins("JOIN conversation_participants p ON p.conversation_id = conversations.id").
		Where("p.user_id = ? AND p.is_removed = FALSE AND conversations.is_removed = FALSE", userID)

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Conversation
	err := base.
		Preload("Participants").
		Preload("Participants.User").
		Order("conversations.last_message_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// Leave soft-removes one membership; the conversation row stays for the
// other side and for resurrection.
func (r *Repository) Leave(ctx context.Context, conversationID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("is_removed", true).Error
}

func (r *Repository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// Messages returns one page of history, newest first.
func (r *Repository) Messages(ctx context.Context, conversationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("conversation_id = ? AND is_removed = FALSE", conversationID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ChatMessage
	err := query.
		Preload("Sender").
		Preload("Attachment").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// MarkRead flags everything the other side sent as read.
func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = FALSE", conversationID, readerID).
		Update("is_read", true).Error
}

// TouchLastMessage bumps the conversation's activity marker.
func (r *Repository) TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_at", at).Error
}

// UnreadCount counts messages addressed to the reader that are still unread.
func (r *Repository) UnreadCount(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = FALSE AND is_removed = FALSE", conversationID, readerID).
		Count(&count).Error
	return count, err
}
