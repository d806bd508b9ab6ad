package applications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// Repository persists job and tender applications plus the employer
// blacklist.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateJobApplication(ctx context.Context, app *models.AppliedJob) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) FindJobApplication(ctx context.Context, id uuid.UUID) (*models.AppliedJob, error) {
	var app models.AppliedJob
	err := r.db.WithContext(ctx).
		Preload("Job").
		Preload("User").
		Preload("Resume").
		Where("id = ? AND is_removed = FALSE", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) UpdateJobApplication(ctx context.Context, app *models.AppliedJob) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *Repository) RemoveJobApplication(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AppliedJob{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

// JobApplicants returns one page of applications for a job, oldest first so
// the employer reviews in arrival order. Blacklisted user ids are excluded
// when the exclusion list is non-empty.
func (r *Repository) JobApplicants(ctx context.Context, jobID uuid.UUID, exclude []uuid.UUID, page pagination.Params) ([]models.AppliedJob, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AppliedJob{}).
		Where("job_id = ? AND is_removed = FALSE", jobID)
	if len(exclude) > 0 {
		query = query.Where("user_id NOT IN ?", exclude)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AppliedJob
	err := query.
		Preload("User").
		Preload("Resume").
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// JobApplicationsByUser returns the seeker's own applications, newest first.
func (r *Repository) JobApplicationsByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedJob, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AppliedJob{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AppliedJob
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

func (r *Repository) CountJobApplicants(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AppliedJob{}).
		Where("job_id = ? AND is_removed = FALSE", jobID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateTenderApplication(ctx context.Context, app *models.AppliedTender) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) FindTenderApplication(ctx context.Context, id uuid.UUID) (*models.AppliedTender, error) {
	var app models.AppliedTender
	err := r.db.WithContext(ctx).
		Preload("Tender").
		Preload("User").
		Preload("Attachment").
		Where("id = ? AND is_removed = FALSE", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) UpdateTenderApplication(ctx context.Context, app *models.AppliedTender) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *Repository) RemoveTenderApplication(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AppliedTender{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

func (r *Repository) TenderApplicants(ctx context.Context, tenderID uuid.UUID, exclude []uuid.UUID, page pagination.Params) ([]models.AppliedTender, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AppliedTender{}).
		Where("tender_id = ? AND is_removed = FALSE", tenderID)
	if len(exclude) > 0 {
		query = query.Where("user_id NOT IN ?", exclude)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AppliedTender
	err := query.
		Preload("User").
		Preload("Attachment").
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) TenderApplicationsByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedTender, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AppliedTender{}).
		Where("user_id = ? AND is_removed = FALSE", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AppliedTender
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

func (r *Repository) CountTenderApplicants(ctx context.Context, tenderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AppliedTender{}).
		Where("tender_id = ? AND is_removed = FALSE", tenderID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateBlacklist(ctx context.Context, row *models.BlackList) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) RemoveBlacklist(ctx context.Context, ownerID, blacklistedUserID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND blacklisted_user_id = ?", ownerID, blacklistedUserID).
		Delete(&models.BlackList{})
	return result.RowsAffected, result.Error
}

func (r *Repository) ListBlacklist(ctx context.Context, ownerID uuid.UUID, page pagination.Params) ([]models.BlackList, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BlackList{}).
		Where("user_id = ?", ownerID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BlackList
	err := query.
		Preload("BlacklistedUser").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// BlacklistedIDs returns the user ids an employer has blacklisted; the
// applicant listings exclude these by default.
func (r *Repository) BlacklistedIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BlackList{}).
		Where("user_id = ?", ownerID).
		Pluck("blacklisted_user_id", &ids).Error
	return ids, err
}
