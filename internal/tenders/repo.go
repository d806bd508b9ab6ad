package tenders

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

// ListParams narrows the public tender listing.
type ListParams struct {
	Search     string
	Country    string
	City       string
	BudgetMin  *decimal.Decimal
	BudgetMax  *decimal.Decimal
	Category   string
	TenderType string
	Sector     string
	Tag        string
	OwnerID    uuid.UUID
	Statuses   []enums.PostingStatus
	Page       pagination.Params
}

// Repository encapsulates tender persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, tender *models.Tender) error {
	return r.db.WithContext(ctx).Create(tender).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tender, error) {
	var tender models.Tender
	err := r.preloaded(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&tender).Error
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

func (r *Repository) FindByShortID(ctx context.Context, shortID string) (*models.Tender, error) {
	var tender models.Tender
	err := r.preloaded(ctx).
		Where("tender_id = ? AND is_removed = FALSE", shortID).
		First(&tender).Error
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Tender, error) {
	var tender models.Tender
	err := r.preloaded(ctx).
		Where("slug = ? AND is_removed = FALSE", slug).
		First(&tender).Error
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

func (r *Repository) Update(ctx context.Context, tender *models.Tender) error {
	return r.db.WithContext(ctx).Save(tender).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PostingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Tender{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Tender{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

// Restore clears the soft-delete flag; the posting comes back inactive so the
// owner re-activates it deliberately.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Tender{}).
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

// List returns one page of tenders plus the unpaginated count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Tender, int64, error) {
	query := r.filtered(ctx, params)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Tender
	err := query.
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

// ActiveSince returns active tenders created after the cutoff.
func (r *Repository) ActiveSince(ctx context.Context, cutoff time.Time) ([]models.Tender, error) {
	var rows []models.Tender
	err := r.db.WithContext(ctx).
		Where("is_removed = FALSE AND status = ? AND created_at > ?", enums.PostingStatusActive, cutoff).
		Find(&rows).Error
	return rows, err
}

// ActiveExcept returns all live active tenders except the given one.
func (r *Repository) ActiveExcept(ctx context.Context, exclude uuid.UUID) ([]models.Tender, error) {
	var rows []models.Tender
	query := r.db.WithContext(ctx).
		Where("is_removed = FALSE AND status = ?", enums.PostingStatusActive)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Find(&rows).Error
	return rows, err
}

// ExpiringBetween returns saved-notification candidates: active tenders whose
// deadline falls inside the window.
func (r *Repository) ExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Tender, error) {
	var rows []models.Tender
	err := r.db.WithContext(ctx).
		Where("is_removed = FALSE AND status = ? AND deadline IS NOT NULL AND deadline >= ? AND deadline < ?",
			enums.PostingStatusActive, from, to).
		Find(&rows).Error
	return rows, err
}

// DetachAttachment clears the tender reference so the media row survives.
func (r *Repository) DetachAttachment(ctx context.Context, tenderID, attachmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TenderAttachment{}).
		Where("id = ? AND tender_id = ?", attachmentID, tenderID).
		Update("tender_id", nil).Error
}

func (r *Repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Attachments.Media").
		Preload("CompanyLogo")
}

func (r *Repository) filtered(ctx context.Context, params ListParams) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Tender{}).
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
	if params.BudgetMin != nil {
		query = query.Where("budget_amount >= ?", *params.BudgetMin)
	}
	if params.BudgetMax != nil {
		query = query.Where("budget_amount <= ?", *params.BudgetMax)
	}
	// Postgres array membership; the facet columns are text[].
	if params.Category != "" {
		query = query.Where("? = ANY(categories)", params.Category)
	}
	if params.TenderType != "" {
		query = query.Where("? = ANY(tender_types)", params.TenderType)
	}
	if params.Sector != "" {
		query = query.Where("? = ANY(sectors)", params.Sector)
	}
	if params.Tag != "" {
		query = query.Where("? = ANY(tags)", params.Tag)
	}
	return query
}
