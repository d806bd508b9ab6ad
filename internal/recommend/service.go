package recommend

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/pkg/db/models"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

const defaultSuggestionLimit = 10

// ServiceParams groups dependencies for the suggestion engine.
type ServiceParams struct {
	JobRepo    *jobs.Repository
	TenderRepo *tenders.Repository
	Logger     *logger.Logger
}

// Service ranks postings against a reference posting. Ranking itself is
// stateless; candidates are loaded live and scored in memory.
type Service interface {
	SimilarJobs(ctx context.Context, jobID uuid.UUID, limit int) ([]models.Job, error)
	SimilarTenders(ctx context.Context, tenderID uuid.UUID, limit int) ([]models.Tender, error)
}

type service struct {
	jobRepo    *jobs.Repository
	tenderRepo *tenders.Repository
	logg       *logger.Logger
}

// NewService builds the suggestion engine.
func NewService(params ServiceParams) (Service, error) {
	if params.JobRepo == nil || params.TenderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "posting repos are required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{jobRepo: params.JobRepo, tenderRepo: params.TenderRepo, logg: params.Logger}, nil
}

func (s *service) SimilarJobs(ctx context.Context, jobID uuid.UUID, limit int) ([]models.Job, error) {
	ref, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	candidates, err := s.jobRepo.ActiveExcept(ctx, ref.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidates")
	}

	scored := make([]ScoredJob, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, ScoredJob{Job: candidate, Matches: ScoreJob(ref, &candidate)})
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	ranked := rankJobs(scored, limit)
	out := make([]models.Job, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.Job)
	}
	return out, nil
}

func (s *service) SimilarTenders(ctx context.Context, tenderID uuid.UUID, limit int) ([]models.Tender, error) {
	ref, err := s.tenderRepo.FindByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}

	candidates, err := s.tenderRepo.ActiveExcept(ctx, ref.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidates")
	}

	scored := make([]ScoredTender, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, ScoredTender{Tender: candidate, Matches: ScoreTender(ref, &candidate)})
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	ranked := rankTenders(scored, limit)
	out := make([]models.Tender, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.Tender)
	}
	return out, nil
}
