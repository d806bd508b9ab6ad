package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
	"github.com/koor-works/koor-backend/pkg/shortid"
)

const shortIDAttempts = 5

// ServiceParams groups dependencies for the job service.
type ServiceParams struct {
	Repo     *Repository
	UserRepo *users.Repository
	Logger   *logger.Logger
	Now      func() time.Time
}

// LanguageParams is one required language on a posting. Spoken and written
// proficiency must both be present.
type LanguageParams struct {
	Language string
	Spoken   string
	Written  string
}

// CreateParams carries a new job posting.
type CreateParams struct {
	OwnerID                uuid.UUID
	Title                  string
	Description            string
	BudgetCurrency         string
	BudgetAmount           decimal.Decimal
	BudgetPayPeriod        enums.PayPeriod
	Country                string
	City                   string
	Address                string
	StartDate              *time.Time
	Deadline               *time.Time
	CompanyName            string
	CompanyLogoID          *uuid.UUID
	IsFullTime             bool
	IsPartTime             bool
	HasContract            bool
	ContactEmail           *string
	CCEmail                *string
	ContactWhatsapp        *string
	WorkingDays            *string
	Duration               *string
	Experience             *string
	HighestEducation       *string
	ApplyThrough           enums.ApplyChannel
	ApplicationInstruction *string
	Categories             []string
	Skills                 []string
	Languages              []LanguageParams
	AttachmentMediaIDs     []uuid.UUID
	PostedByAdmin          bool
}

// UpdateParams mirrors CreateParams for edits. Title changes regenerate the
// slug.
type UpdateParams struct {
	CreateParams
}

// Service exposes the job posting lifecycle.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Job, error)
	Update(ctx context.Context, actor *models.User, jobID uuid.UUID, params UpdateParams) (*models.Job, error)
	Get(ctx context.Context, idOrSlug string) (*models.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context, params ListParams) ([]models.Job, int64, error)
	SetStatus(ctx context.Context, actor *models.User, jobID uuid.UUID, status enums.PostingStatus) error
	Delete(ctx context.Context, actor *models.User, jobID uuid.UUID) error
	Restore(ctx context.Context, actor *models.User, jobID uuid.UUID) error
}

type service struct {
	repo     *Repository
	userRepo *users.Repository
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a job service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, userRepo: params.UserRepo, logg: params.Logger, now: now}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Job, error) {
	if err := validatePosting(params); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.FindByID(ctx, params.OwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "owner not found")
	}
	if owner.Role != enums.RoleEmployer && owner.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}

	job := &models.Job{
		UserID:                 params.OwnerID,
		Title:                  params.Title,
		Description:            params.Description,
		BudgetCurrency:         params.BudgetCurrency,
		BudgetAmount:           params.BudgetAmount,
		BudgetPayPeriod:        params.BudgetPayPeriod,
		Country:                params.Country,
		City:                   params.City,
		Address:                params.Address,
		StartDate:              params.StartDate,
		Deadline:               params.Deadline,
		Status:                 enums.PostingStatusActive,
		PostedByAdmin:          owner.Role == enums.RoleAdmin || params.PostedByAdmin,
		CompanyName:            params.CompanyName,
		CompanyLogoID:          params.CompanyLogoID,
		IsFullTime:             params.IsFullTime,
		IsPartTime:             params.IsPartTime,
		HasContract:            params.HasContract,
		ContactEmail:           params.ContactEmail,
		CCEmail:                params.CCEmail,
		ContactWhatsapp:        params.ContactWhatsapp,
		WorkingDays:            params.WorkingDays,
		Duration:               params.Duration,
		Experience:             params.Experience,
		HighestEducation:       params.HighestEducation,
		ApplyThrough:           params.ApplyThrough,
		ApplicationInstruction: params.ApplicationInstruction,
		Categories:             pq.StringArray(params.Categories),
		Skills:                 pq.StringArray(params.Skills),
	}
	if job.ApplyThrough == "" {
		job.ApplyThrough = enums.ApplyChannelKoor
	}
	for _, lang := range params.Languages {
		job.Languages = append(job.Languages, models.JobLanguage{
			Language: lang.Language,
			Spoken:   lang.Spoken,
			Written:  lang.Written,
		})
	}
	for _, mediaID := range params.AttachmentMediaIDs {
		job.Attachments = append(job.Attachments, models.JobAttachment{MediaID: mediaID})
	}

	// Short id collisions retry with a fresh pair of segments.
	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		id, err := shortid.New()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate job id")
		}
		job.JobID = id
		job.Slug = s.uniqueSlug(params.Title, id)

		err = s.repo.Create(ctx, job)
		if err == nil {
			s.logg.Info(s.logg.WithField(ctx, "job_id", job.JobID), "job created")
			return job, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create job")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique job id")
}

func (s *service) Update(ctx context.Context, actor *models.User, jobID uuid.UUID, params UpdateParams) (*models.Job, error) {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(actor, job.UserID); err != nil {
		return nil, err
	}
	if err := validatePosting(params.CreateParams); err != nil {
		return nil, err
	}

	if params.Title != job.Title {
		job.Slug = s.uniqueSlug(params.Title, job.JobID)
	}
	job.Title = params.Title
	job.Description = params.Description
	job.BudgetCurrency = params.BudgetCurrency
	job.BudgetAmount = params.BudgetAmount
	job.BudgetPayPeriod = params.BudgetPayPeriod
	job.Country = params.Country
	job.City = params.City
	job.Address = params.Address
	job.StartDate = params.StartDate
	job.Deadline = params.Deadline
	job.CompanyName = params.CompanyName
	job.CompanyLogoID = params.CompanyLogoID
	job.IsFullTime = params.IsFullTime
	job.IsPartTime = params.IsPartTime
	job.HasContract = params.HasContract
	job.ContactEmail = params.ContactEmail
	job.CCEmail = params.CCEmail
	job.ContactWhatsapp = params.ContactWhatsapp
	job.WorkingDays = params.WorkingDays
	job.Duration = params.Duration
	job.Experience = params.Experience
	job.HighestEducation = params.HighestEducation
	if params.ApplyThrough != "" {
		job.ApplyThrough = params.ApplyThrough
	}
	job.ApplicationInstruction = params.ApplicationInstruction
	job.Categories = pq.StringArray(params.Categories)
	job.Skills = pq.StringArray(params.Skills)
	job.Languages = nil
	job.Attachments = nil

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update job")
	}

	languages := make([]models.JobLanguage, 0, len(params.Languages))
	for _, lang := range params.Languages {
		languages = append(languages, models.JobLanguage{
			Language: lang.Language,
			Spoken:   lang.Spoken,
			Written:  lang.Written,
		})
	}
	if err := s.repo.ReplaceLanguages(ctx, job.ID, languages); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace languages")
	}

	return s.GetByID(ctx, jobID)
}

// Get resolves a job by short id or slug, whichever matches.
func (s *service) Get(ctx context.Context, idOrSlug string) (*models.Job, error) {
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}

	var (
		job *models.Job
		err error
	)
	if shortid.Valid(idOrSlug) {
		job, err = s.repo.FindByShortID(ctx, idOrSlug)
	} else {
		job, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	return job, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	return job, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Job, int64, error) {
	params.Page.Limit = pagination.NormalizeLimit(params.Page.Limit)
	rows, count, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list jobs")
	}
	return rows, count, nil
}

func (s *service) SetStatus(ctx context.Context, actor *models.User, jobID uuid.UUID, status enums.PostingStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status").WithField("status")
	}
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.ensureOwner(actor, job.UserID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, jobID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actor *models.User, jobID uuid.UUID) error {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.ensureOwner(actor, job.UserID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, jobID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete job")
	}
	return nil
}

// Restore brings a soft-deleted job back as inactive. Admin only.
func (s *service) Restore(ctx context.Context, actor *models.User, jobID uuid.UUID) error {
	if actor == nil || actor.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	if err := s.repo.Restore(ctx, jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore job")
	}
	return nil
}

func (s *service) ensureOwner(actor *models.User, ownerID uuid.UUID) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role == enums.RoleAdmin || actor.ID == ownerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
}

func (s *service) uniqueSlug(title, shortID string) string {
	return slug.Make(title) + "-" + shortID
}

func validatePosting(params CreateParams) error {
	fields := map[string][]string{}
	if params.Title == "" {
		fields["title"] = []string{"This field is required."}
	}
	if params.OwnerID == uuid.Nil {
		fields["user"] = []string{"This field is required."}
	}
	if params.Deadline != nil && params.StartDate != nil && params.Deadline.Before(*params.StartDate) {
		fields["deadline"] = []string{"Deadline cannot be before the start date."}
	}
	for _, lang := range params.Languages {
		if lang.Language == "" || lang.Spoken == "" || lang.Written == "" {
			fields["languages"] = []string{"Language, spoken and written levels are all required."}
			break
		}
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithFields(fields)
	}
	return nil
}
