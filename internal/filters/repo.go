package filters

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// Repository persists saved searches for jobs and tenders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateJobFilter(ctx context.Context, row *models.JobFilter) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) FindJobFilter(ctx context.Context, id uuid.UUID) (*models.JobFilter, error) {
	var row models.JobFilter
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) UpdateJobFilter(ctx context.Context, row *models.JobFilter) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repository) RemoveJobFilter(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.JobFilter{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

func (r *Repository) ListJobFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.JobFilter, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.JobFilter{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.JobFilter
	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// NotifyingJobFilters returns every live job filter with notifications on;
// the advance-filter cron matches new postings against these.
func (r *Repository) NotifyingJobFilters(ctx context.Context) ([]models.JobFilter, error) {
	var rows []models.JobFilter
	err := r.db.WithContext(ctx).
		Where("is_notification = TRUE AND is_removed = FALSE").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateTenderFilter(ctx context.Context, row *models.TenderFilter) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) FindTenderFilter(ctx context.Context, id uuid.UUID) (*models.TenderFilter, error) {
	var row models.TenderFilter
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) UpdateTenderFilter(ctx context.Context, row *models.TenderFilter) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repository) RemoveTenderFilter(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TenderFilter{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

func (r *Repository) ListTenderFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.TenderFilter, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TenderFilter{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TenderFilter
	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) NotifyingTenderFilters(ctx context.Context) ([]models.TenderFilter, error) {
	var rows []models.TenderFilter
	err := r.db.WithContext(ctx).
		Where("is_notification = TRUE AND is_removed = FALSE").
		Find(&rows).Error
	return rows, err
}
