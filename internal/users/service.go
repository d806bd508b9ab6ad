package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// UpdateProfileParams carries the editable profile attributes. Nil fields are
// left untouched.
type UpdateProfileParams struct {
	Name             *string
	Gender           *string
	DOB              *time.Time
	EmploymentStatus *string
	Country          *string
	City             *string
	HighestEducation *string
	MarketingInfo    *bool
	ProfileImageID   *uuid.UUID
}

// NotificationPrefsParams toggles the delivery channels.
type NotificationPrefsParams struct {
	GetEmail        *bool
	GetNotification *bool
}

// Service exposes account and profile management.
type Service interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *models.JobSeekerProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) error
	UpdateNotificationPrefs(ctx context.Context, userID uuid.UUID, params NotificationPrefsParams) error
	EnsureProfileComplete(ctx context.Context, userID uuid.UUID) error
	SetOnline(ctx context.Context, userID uuid.UUID, online bool) error
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds a user service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *models.JobSeekerProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return user, profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.ProfileImageID != nil {
		user.ProfileImageID = params.ProfileImageID
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}
		profile = &models.JobSeekerProfile{UserID: userID}
	}

	if params.Gender != nil {
		profile.Gender = params.Gender
	}
	if params.DOB != nil {
		profile.DOB = params.DOB
	}
	if params.EmploymentStatus != nil {
		profile.EmploymentStatus = params.EmploymentStatus
	}
	if params.Country != nil {
		profile.Country = params.Country
	}
	if params.City != nil {
		profile.City = params.City
	}
	if params.HighestEducation != nil {
		profile.HighestEducation = params.HighestEducation
	}
	if params.MarketingInfo != nil {
		profile.MarketingInfo = *params.MarketingInfo
	}

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile")
	}
	return nil
}

func (s *service) UpdateNotificationPrefs(ctx context.Context, userID uuid.UUID, params NotificationPrefsParams) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if params.GetEmail != nil {
		user.GetEmail = *params.GetEmail
	}
	if params.GetNotification != nil {
		user.GetNotification = *params.GetNotification
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notification prefs")
	}
	return nil
}

// EnsureProfileComplete rejects with the list of missing attributes when the
// job seeker profile is not filled in. Applying to postings requires this.
func (s *service) EnsureProfileComplete(ctx context.Context, userID uuid.UUID) error {
	user, profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	var missing []string
	if profile == nil {
		missing = (&models.JobSeekerProfile{}).MissingFields(user.Name)
	} else {
		missing = profile.MissingFields(user.Name)
	}
	if len(missing) == 0 {
		return nil
	}

	fields := make(map[string][]string, len(missing))
	for _, field := range missing {
		fields[field] = []string{"This field is required."}
	}
	return pkgerrors.New(pkgerrors.CodeProfileIncomplete, "complete your profile before applying").
		WithFields(fields)
}

func (s *service) SetOnline(ctx context.Context, userID uuid.UUID, online bool) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.SetOnline(ctx, userID, online); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update presence")
	}
	return nil
}

func (s *service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
	}
	return nil
}
