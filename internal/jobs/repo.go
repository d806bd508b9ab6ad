package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ListParams narrows the public job listing.
type ListParams struct {
	Search      string
	Country     string
	City        string
	IsFullTime  *bool
	IsPartTime  *bool
	HasContract *bool
	BudgetMin   *decimal.Decimal
	BudgetMax   *decimal.Decimal
	Category    string
	OwnerID     uuid.UUID
	Statuses    []enums.PostingStatus
	Page        pagination.Params
}

// Repository encapsulates job persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a job repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the job with its languages and attachments.
func (r *Repository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID loads a live job with its associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.preloaded(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByShortID loads a live job by its human identifier.
func (r *Repository) FindByShortID(ctx context.Context, shortID string) (*models.Job, error) {
	var job models.Job
	err := r.preloaded(ctx).
		Where("job_id = ? AND is_removed = FALSE", shortID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindBySlug loads a live job by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Job, error) {
	var job models.Job
	err := r.preloaded(ctx).
		Where("slug = ? AND is_removed = FALSE", slug).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Update persists the job row.
func (r *Repository) Update(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// UpdateStatus flips only the lifecycle column.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PostingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SoftDelete flags the job as removed.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

// Restore clears the soft-delete flag; the posting comes back inactive so the
// owner re-activates it deliberately.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND is_removed = TRUE", id).
		Updates(map[string]any{"is_removed": false, "status": enums.PostingStatusInactive})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of jobs plus the unpaginated count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Job, int64, error) {
	query := r.filtered(ctx, params)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Job
	err := query.
		Preload("Languages").
		Preload("Attachments").
		Order("created_at DESC").
		Limit(params.Page.Limit).
		Offset(params.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// ActiveSince returns active jobs created after the cutoff, used by the
// saved-filter notification job.
func (r *Repository) ActiveSince(ctx context.Context, cutoff time.Time) ([]models.Job, error) {
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Where("is_removed = FALSE AND status = ? AND created_at > ?", enums.PostingStatusActive, cutoff).
		Find(&rows).Error
	return rows, err
}

// ActiveExcept returns all live active jobs except the given one; the
// suggestion engine scores these in memory.
func (r *Repository) ActiveExcept(ctx context.Context, exclude uuid.UUID) ([]models.Job, error) {
	var rows []models.Job
	query := r.db.WithContext(ctx).
		Where("is_removed = FALSE AND status = ?", enums.PostingStatusActive)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Find(&rows).Error
	return rows, err
}

// DetachAttachment clears the job reference so the media row survives.
func (r *Repository) DetachAttachment(ctx context.Context, jobID, attachmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.JobAttachment{}).
		Where("id = ? AND job_id = ?", attachmentID, jobID).
		Update("job_id", nil).Error
}

// ReplaceLanguages swaps the language requirement set inside a transaction.
func (r *Repository) ReplaceLanguages(ctx context.Context, jobID uuid.UUID, languages []models.JobLanguage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&models.JobLanguage{}).Error; err != nil {
			return err
		}
		for i := range languages {
			languages[i].JobID = jobID
		}
		if len(languages) == 0 {
			return nil
		}
		return tx.Create(&languages).Error
	})
}

func (r *Repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Languages").
		Preload("Attachments").
		Preload("Attachments.Media").
		Preload("CompanyLogo")
}

func (r *Repository) filtered(ctx context.Context, params ListParams) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("is_removed = FALSE")

	statuses := params.Statuses
	if len(statuses) == 0 {
		statuses = []enums.PostingStatus{enums.PostingStatusActive}
	}
	query = query.Where("status IN ?", statuses)

	if params.OwnerID != uuid.Nil {
		query = query.Where("user_id = ?", params.OwnerID)
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if params.Country != "" {
		query = query.Where("LOWER(country) = ?", strings.ToLower(params.Country))
	}
	if params.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(params.City))
	}
	if params.IsFullTime != nil {
		query = query.Where("is_full_time = ?", *params.IsFullTime)
	}
	if params.IsPartTime != nil {
		query = query.Where("is_part_time = ?", *params.IsPartTime)
	}
	if params.HasContract != nil {
		query = query.Where("has_contract = ?", *params.HasContract)
	}
	if params.BudgetMin != nil {
		query = query.Where("budget_amount >= ?", *params.BudgetMin)
	}
	if params.BudgetMax != nil {
		query = query.Where("budget_amount <= ?", *params.BudgetMax)
	}
	if params.Category != "" {
		// Postgres array membership; the facet columns are text[].
		query = query.Where("? = ANY(categories)", params.Category)
	}
	return query
}
