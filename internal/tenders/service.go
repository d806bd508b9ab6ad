package tenders

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

// ServiceParams groups dependencies for the tender service.
type ServiceParams struct {
	Repo     *Repository
	UserRepo *users.Repository
	Logger   *logger.Logger
	Now      func() time.Time
}

// CreateParams carries a new tender posting.
type CreateParams struct {
	OwnerID            uuid.UUID
	Title              string
	Description        string
	BudgetCurrency     string
	BudgetAmount       decimal.Decimal
	Country            string
	City               string
	Address            string
	StartDate          *time.Time
	Deadline           *time.Time
	CompanyName        string
	CompanyLogoID      *uuid.UUID
	Tags               []string
	Categories         []string
	TenderTypes        []string
	Sectors            []string
	AttachmentMediaIDs []uuid.UUID
	PostedByAdmin      bool
}

// UpdateParams mirrors CreateParams for edits.
type UpdateParams struct {
	CreateParams
}

// Service exposes the tender posting lifecycle.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Tender, error)
	Update(ctx context.Context, actor *models.User, tenderID uuid.UUID, params UpdateParams) (*models.Tender, error)
	Get(ctx context.Context, idOrSlug string) (*models.Tender, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tender, error)
	List(ctx context.Context, params ListParams) ([]models.Tender, int64, error)
	SetStatus(ctx context.Context, actor *models.User, tenderID uuid.UUID, status enums.PostingStatus) error
	Delete(ctx context.Context, actor *models.User, tenderID uuid.UUID) error
	Restore(ctx context.Context, actor *models.User, tenderID uuid.UUID) error
}

type service struct {
	repo     *Repository
	userRepo *users.Repository
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a tender service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tender repo is required")
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

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Tender, error) {
	if err := validateTender(params); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.FindByID(ctx, params.OwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "owner not found")
	}
	if owner.Role != enums.RoleEmployer && owner.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}

	tender := &models.Tender{
		UserID:         params.OwnerID,
		Title:          params.Title,
		Description:    params.Description,
		BudgetCurrency: params.BudgetCurrency,
		BudgetAmount:   params.BudgetAmount,
		Country:        params.Country,
		City:           params.City,
		Address:        params.Address,
		StartDate:      params.StartDate,
		Deadline:       params.Deadline,
		Status:         enums.PostingStatusActive,
		PostedByAdmin:  owner.Role == enums.RoleAdmin || params.PostedByAdmin,
		CompanyName:    params.CompanyName,
		CompanyLogoID:  params.CompanyLogoID,
		Tags:           pq.StringArray(params.Tags),
		Categories:     pq.StringArray(params.Categories),
		TenderTypes:    pq.StringArray(params.TenderTypes),
		Sectors:        pq.StringArray(params.Sectors),
	}
	for _, mediaID := range params.AttachmentMediaIDs {
		tender.Attachments = append(tender.Attachments, models.TenderAttachment{MediaID: mediaID})
	}

	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		id, err := shortid.New()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tender id")
		}
		tender.TenderID = id
		tender.Slug = slug.Make(params.Title) + "-" + id

		err = s.repo.Create(ctx, tender)
		if err == nil {
			s.logg.Info(s.logg.WithField(ctx, "tender_id", tender.TenderID), "tender created")
			return tender, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tender")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique tender id")
}

func (s *service) Update(ctx context.Context, actor *models.User, tenderID uuid.UUID, params UpdateParams) (*models.Tender, error) {
	tender, err := s.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(actor, tender.UserID); err != nil {
		return nil, err
	}
	if err := validateTender(params.CreateParams); err != nil {
		return nil, err
	}

	if params.Title != tender.Title {
		tender.Slug = slug.Make(params.Title) + "-" + tender.TenderID
	}
	tender.Title = params.Title
	tender.Description = params.Description
	tender.BudgetCurrency = params.BudgetCurrency
	tender.BudgetAmount = params.BudgetAmount
	tender.Country = params.Country
	tender.City = params.City
	tender.Address = params.Address
	tender.StartDate = params.StartDate
	tender.Deadline = params.Deadline
	tender.CompanyName = params.CompanyName
	tender.CompanyLogoID = params.CompanyLogoID
	tender.Tags = pq.StringArray(params.Tags)
	tender.Categories = pq.StringArray(params.Categories)
	tender.TenderTypes = pq.StringArray(params.TenderTypes)
	tender.Sectors = pq.StringArray(params.Sectors)
	tender.Attachments = nil

	if err := s.repo.Update(ctx, tender); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tender")
	}
	return s.GetByID(ctx, tenderID)
}

// Get resolves a tender by short id or slug, whichever matches.
func (s *service) Get(ctx context.Context, idOrSlug string) (*models.Tender, error) {
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tender id is required")
	}

	var (
		tender *models.Tender
		err    error
	)
	if shortid.Valid(idOrSlug) {
		tender, err = s.repo.FindByShortID(ctx, idOrSlug)
	} else {
		tender, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}
	return tender, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Tender, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tender id is required")
	}
	tender, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}
	return tender, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Tender, int64, error) {
	params.Page.Limit = pagination.NormalizeLimit(params.Page.Limit)
	rows, count, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tenders")
	}
	return rows, count, nil
}

func (s *service) SetStatus(ctx context.Context, actor *models.User, tenderID uuid.UUID, status enums.PostingStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status").WithField("status")
	}
	tender, err := s.GetByID(ctx, tenderID)
	if err != nil {
		return err
	}
	if err := s.ensureOwner(actor, tender.UserID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, tenderID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actor *models.User, tenderID uuid.UUID) error {
	tender, err := s.GetByID(ctx, tenderID)
	if err != nil {
		return err
	}
	if err := s.ensureOwner(actor, tender.UserID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, tenderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tender")
	}
	return nil
}

// Restore brings a soft-deleted tender back as inactive. Admin only.
func (s *service) Restore(ctx context.Context, actor *models.User, tenderID uuid.UUID) error {
	if actor == nil || actor.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	if err := s.repo.Restore(ctx, tenderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore tender")
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

func validateTender(params CreateParams) error {
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
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithFields(fields)
	}
	return nil
}
