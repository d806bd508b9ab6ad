package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

// Repository encapsulates media persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var row models.Media
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SoftDelete marks a media row removed without touching the stored file;
// the file stays on disk until a retention sweep reclaims it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ? AND is_removed = FALSE", id).
		Update("is_removed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListForOwner returns an owner's media rows, newest first.
func (r *Repository) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Media, error) {
	var rows []models.Media
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_removed = FALSE", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
