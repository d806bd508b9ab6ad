package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// Repository encapsulates notification persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListForUser returns one page of a user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Notification
	err := query.
		Preload("Sender").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// MarkSeen flags one notification, scoped to its owner.
func (r *Repository) MarkSeen(ctx context.Context, userID, notificationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_removed = FALSE", notificationID, userID).
		Update("seen", true)
	return result.RowsAffected, result.Error
}

// MarkAllSeen flags every unseen notification for the user.
func (r *Repository) MarkAllSeen(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND seen = FALSE AND is_removed = FALSE", userID).
		Update("seen", true).Error
}

// AdvanceFilterExists reports whether a filter-match notification for the
// (filter, posting) pair was already emitted; the cron uses it to dedupe.
func (r *Repository) AdvanceFilterExists(ctx context.Context, filterID uuid.UUID, jobID, tenderID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("filter_id = ?", filterID)
	if jobID != nil {
		query = query.Where("job_id = ?", *jobID)
	}
	if tenderID != nil {
		query = query.Where("tender_id = ?", *tenderID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UnseenCount returns the badge counter.
func (r *Repository) UnseenCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND seen = FALSE AND is_removed = FALSE", userID).
		Count(&count).Error
	return count, err
}

// DeleteOlderThan hard-deletes notification rows created before the cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// ActiveSMTPSetting returns the newest SMTP account row, or nil when none is
// configured and the static config should apply.
func (r *Repository) ActiveSMTPSetting(ctx context.Context) (*models.SMTPSetting, error) {
	var row models.SMTPSetting
	err := r.db.WithContext(ctx).
		Where("is_removed = FALSE").
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
