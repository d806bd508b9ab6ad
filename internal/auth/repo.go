package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

// SessionRepository persists server-side login sessions. A token is only
// valid while its session row is live, so revocation is immediate.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row for a fresh login.
func (r *SessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByID loads a session by primary key.
func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Expire ends one session as of now.
func (r *SessionRepository) Expire(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("id = ?", id).
		Update("expire_at", now).Error
}

// ExpireAllForUser ends every live session a user holds, e.g. after a
// password change.
func (r *SessionRepository) ExpireAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("user_id = ? AND (expire_at IS NULL OR expire_at > ?)", userID, now).
		Update("expire_at", now).Error
}

// DeleteExpiredBefore removes session rows that ended before the cutoff.
// The cleanup cron calls this.
func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expire_at IS NOT NULL AND expire_at < ?", cutoff).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
