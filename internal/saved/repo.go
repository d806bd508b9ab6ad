package saved

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// Repository persists job and tender bookmarks.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateJob(ctx context.Context, row *models.SavedJob) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// DeleteJob hard-deletes the bookmark so the pair can be saved again.
func (r *Repository) DeleteJob(ctx context.Context, userID, jobID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Delete(&models.SavedJob{})
	return result.RowsAffected, result.Error
}

func (r *Repository) ListJobs(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedJob, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SavedJob{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SavedJob
	err := query.
		Preload("Job").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) CreateTender(ctx context.Context, row *models.SavedTender) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) DeleteTender(ctx context.Context, userID, tenderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND tender_id = ?", userID, tenderID).
		Delete(&models.SavedTender{})
	return result.RowsAffected, result.Error
}

func (r *Repository) ListTenders(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedTender, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SavedTender{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SavedTender
	err := query.
		Preload("Tender").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// UnnotifiedForTenders returns bookmark rows for the given tenders whose
// expiry reminder has not gone out yet.
func (r *Repository) UnnotifiedForTenders(ctx context.Context, tenderIDs []uuid.UUID) ([]models.SavedTender, error) {
	if len(tenderIDs) == 0 {
		return nil, nil
	}
	var rows []models.SavedTender
	err := r.db.WithContext(ctx).
		Preload("Tender").
		Where("tender_id IN ? AND notified = FALSE AND is_removed = FALSE", tenderIDs).
		Find(&rows).Error
	return rows, err
}

// MarkNotified flags the reminder as sent.
func (r *Repository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedTender{}).
		Where("id = ?", id).
		Update("notified", true).Error
}
