package saved

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/db/models"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the bookmark service.
type ServiceParams struct {
	Repo       *Repository
	JobRepo    *jobs.Repository
	TenderRepo *tenders.Repository
	Logger     *logger.Logger
}

// Service manages job and tender bookmarks.
type Service interface {
	SaveJob(ctx context.Context, userID, jobID uuid.UUID) (*models.SavedJob, error)
	UnsaveJob(ctx context.Context, userID, jobID uuid.UUID) error
	ListJobs(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedJob, int64, error)

	SaveTender(ctx context.Context, userID, tenderID uuid.UUID) (*models.SavedTender, error)
	UnsaveTender(ctx context.Context, userID, tenderID uuid.UUID) error
	ListTenders(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedTender, int64, error)
}

type service struct {
	repo       *Repository
	jobRepo    *jobs.Repository
	tenderRepo *tenders.Repository
	logg       *logger.Logger
}

// NewService builds the bookmark service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saved repo is required")
	}
	if params.JobRepo == nil || params.TenderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "posting repos are required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, jobRepo: params.JobRepo, tenderRepo: params.TenderRepo, logg: params.Logger}, nil
}

func (s *service) SaveJob(ctx context.Context, userID, jobID uuid.UUID) (*models.SavedJob, error) {
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	row := &models.SavedJob{UserID: userID, JobID: jobID}
	if err := s.repo.CreateJob(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "job is already saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save job")
	}
	return row, nil
}

func (s *service) UnsaveJob(ctx context.Context, userID, jobID uuid.UUID) error {
	affected, err := s.repo.DeleteJob(ctx, userID, jobID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unsave job")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saved job not found")
	}
	return nil
}

func (s *service) ListJobs(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedJob, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListJobs(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list saved jobs")
	}
	return rows, count, nil
}

func (s *service) SaveTender(ctx context.Context, userID, tenderID uuid.UUID) (*models.SavedTender, error) {
	if _, err := s.tenderRepo.FindByID(ctx, tenderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}

	row := &models.SavedTender{UserID: userID, TenderID: tenderID}
	if err := s.repo.CreateTender(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tender is already saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save tender")
	}
	return row, nil
}

func (s *service) UnsaveTender(ctx context.Context, userID, tenderID uuid.UUID) error {
	affected, err := s.repo.DeleteTender(ctx, userID, tenderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unsave tender")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saved tender not found")
	}
	return nil
}

func (s *service) ListTenders(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.SavedTender, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListTenders(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list saved tenders")
	}
	return rows, count, nil
}
