package filters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/db/models"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the saved-search service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// JobFilterParams carries a job saved search.
type JobFilterParams struct {
	Title            string
	Country          string
	City             string
	IsFullTime       bool
	IsPartTime       bool
	HasContract      bool
	SalaryMin        decimal.Decimal
	SalaryMax        decimal.Decimal
	Duration         string
	Experience       string
	HighestEducation string
	WorkingDays      string
	Categories       []string
	IsNotification   bool
}

// TenderFilterParams carries a tender saved search.
type TenderFilterParams struct {
	Title          string
	Country        string
	City           string
	BudgetMin      decimal.Decimal
	BudgetMax      decimal.Decimal
	Deadline       *time.Time
	Categories     []string
	TenderTypes    []string
	Sectors        []string
	Tags           []string
	IsNotification bool
}

// Service manages saved searches and their notification toggles.
type Service interface {
	CreateJobFilter(ctx context.Context, userID uuid.UUID, params JobFilterParams) (*models.JobFilter, error)
	UpdateJobFilter(ctx context.Context, userID, filterID uuid.UUID, params JobFilterParams) (*models.JobFilter, error)
	DeleteJobFilter(ctx context.Context, userID, filterID uuid.UUID) error
	ListJobFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.JobFilter, int64, error)

	CreateTenderFilter(ctx context.Context, userID uuid.UUID, params TenderFilterParams) (*models.TenderFilter, error)
	UpdateTenderFilter(ctx context.Context, userID, filterID uuid.UUID, params TenderFilterParams) (*models.TenderFilter, error)
	DeleteTenderFilter(ctx context.Context, userID, filterID uuid.UUID) error
	ListTenderFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.TenderFilter, int64, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the saved-search service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) CreateJobFilter(ctx context.Context, userID uuid.UUID, params JobFilterParams) (*models.JobFilter, error) {
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithField("title")
	}
	row := &models.JobFilter{UserID: userID}
	applyJobFilter(row, params)
	if err := s.repo.CreateJobFilter(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create filter")
	}
	return row, nil
}

func (s *service) UpdateJobFilter(ctx context.Context, userID, filterID uuid.UUID, params JobFilterParams) (*models.JobFilter, error) {
	row, err := s.ownJobFilter(ctx, userID, filterID)
	if err != nil {
		return nil, err
	}
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithField("title")
	}
	applyJobFilter(row, params)
	if err := s.repo.UpdateJobFilter(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update filter")
	}
	return row, nil
}

func (s *service) DeleteJobFilter(ctx context.Context, userID, filterID uuid.UUID) error {
	row, err := s.ownJobFilter(ctx, userID, filterID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveJobFilter(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete filter")
	}
	return nil
}

func (s *service) ListJobFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.JobFilter, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListJobFilters(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list filters")
	}
	return rows, count, nil
}

func (s *service) CreateTenderFilter(ctx context.Context, userID uuid.UUID, params TenderFilterParams) (*models.TenderFilter, error) {
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithField("title")
	}
	row := &models.TenderFilter{UserID: userID}
	applyTenderFilter(row, params)
	if err := s.repo.CreateTenderFilter(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create filter")
	}
	return row, nil
}

func (s *service) UpdateTenderFilter(ctx context.Context, userID, filterID uuid.UUID, params TenderFilterParams) (*models.TenderFilter, error) {
	row, err := s.ownTenderFilter(ctx, userID, filterID)
	if err != nil {
		return nil, err
	}
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithField("title")
	}
	applyTenderFilter(row, params)
	if err := s.repo.UpdateTenderFilter(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update filter")
	}
	return row, nil
}

func (s *service) DeleteTenderFilter(ctx context.Context, userID, filterID uuid.UUID) error {
	row, err := s.ownTenderFilter(ctx, userID, filterID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveTenderFilter(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete filter")
	}
	return nil
}

func (s *service) ListTenderFilters(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.TenderFilter, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListTenderFilters(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list filters")
	}
	return rows, count, nil
}

func (s *service) ownJobFilter(ctx context.Context, userID, filterID uuid.UUID) (*models.JobFilter, error) {
	row, err := s.repo.FindJobFilter(ctx, filterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "filter not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filter")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return row, nil
}

func (s *service) ownTenderFilter(ctx context.Context, userID, filterID uuid.UUID) (*models.TenderFilter, error) {
	row, err := s.repo.FindTenderFilter(ctx, filterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "filter not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filter")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return row, nil
}

func applyJobFilter(row *models.JobFilter, params JobFilterParams) {
	row.Title = params.Title
	row.Country = params.Country
	row.City = params.City
	row.IsFullTime = params.IsFullTime
	row.IsPartTime = params.IsPartTime
	row.HasContract = params.HasContract
	row.SalaryMin = params.SalaryMin
	row.SalaryMax = params.SalaryMax
	row.Duration = params.Duration
	row.Experience = params.Experience
	row.HighestEducation = params.HighestEducation
	row.WorkingDays = params.WorkingDays
	row.Categories = pq.StringArray(params.Categories)
	row.IsNotification = params.IsNotification
}

func applyTenderFilter(row *models.TenderFilter, params TenderFilterParams) {
	row.Title = params.Title
	row.Country = params.Country
	row.City = params.City
	row.BudgetMin = params.BudgetMin
	row.BudgetMax = params.BudgetMax
	row.Deadline = params.Deadline
	row.Categories = pq.StringArray(params.Categories)
	row.TenderTypes = pq.StringArray(params.TenderTypes)
	row.Sectors = pq.StringArray(params.Sectors)
	row.Tags = pq.StringArray(params.Tags)
	row.IsNotification = params.IsNotification
}
