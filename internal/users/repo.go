package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

// Repository encapsulates user and profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a user repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a live user by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_removed = FALSE", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a live user by normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_removed = FALSE", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByMobile loads a live user by mobile number.
func (r *Repository) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("mobile_number = ? AND is_removed = FALSE", strings.TrimSpace(mobile)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists the supplied user fields.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SoftDelete flags the user as removed, freeing its identifiers for reuse.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

// SetOnline flips the presence flag without touching other columns.
func (r *Repository) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_online", online).Error
}

// FindProfile loads the job seeker profile for a user, if one exists.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.JobSeekerProfile, error) {
	var profile models.JobSeekerProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile inserts or updates the job seeker profile.
func (r *Repository) SaveProfile(ctx context.Context, profile *models.JobSeekerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// NormalizeEmail lowercases and trims an email identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
