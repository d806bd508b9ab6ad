package applications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the application workflow.
type ServiceParams struct {
	Repo       *Repository
	JobRepo    *jobs.Repository
	TenderRepo *tenders.Repository
	Users      users.Service
	Notifier   notifications.Service
	Logger     *logger.Logger
	Now        func() time.Time
}

// ApplyJobParams carries a job seeker's submission.
type ApplyJobParams struct {
	JobID       uuid.UUID
	ShortLetter string
	ResumeID    *uuid.UUID
}

// ApplyTenderParams carries a vendor's submission.
type ApplyTenderParams struct {
	TenderID     uuid.UUID
	ShortLetter  string
	AttachmentID *uuid.UUID
}

// DecideParams is the employer's verdict on one application.
type DecideParams struct {
	Action      enums.DecideAction
	InterviewAt *time.Time
	Reason      string
}

// Service runs the application workflow on both sides of the marketplace.
type Service interface {
	ApplyToJob(ctx context.Context, actor *models.User, params ApplyJobParams) (*models.AppliedJob, error)
	UpdateJobApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID, params ApplyJobParams) (*models.AppliedJob, error)
	RevokeJobApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) error
	DecideJob(ctx context.Context, actor *models.User, applicationID uuid.UUID, params DecideParams) (*models.AppliedJob, error)
	JobApplicants(ctx context.Context, actor *models.User, jobID uuid.UUID, includeBlacklisted bool, page pagination.Params) ([]models.AppliedJob, int64, error)
	MyJobApplications(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedJob, int64, error)

	ApplyToTender(ctx context.Context, actor *models.User, params ApplyTenderParams) (*models.AppliedTender, error)
	UpdateTenderApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID, params ApplyTenderParams) (*models.AppliedTender, error)
	RevokeTenderApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) error
	DecideTender(ctx context.Context, actor *models.User, applicationID uuid.UUID, params DecideParams) (*models.AppliedTender, error)
	TenderApplicants(ctx context.Context, actor *models.User, tenderID uuid.UUID, includeBlacklisted bool, page pagination.Params) ([]models.AppliedTender, int64, error)
	MyTenderApplications(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedTender, int64, error)

	BlacklistUser(ctx context.Context, actor *models.User, userID uuid.UUID, reason string) error
	UnblacklistUser(ctx context.Context, actor *models.User, userID uuid.UUID) error
	ListBlacklist(ctx context.Context, actor *models.User, page pagination.Params) ([]models.BlackList, int64, error)
}

type service struct {
	repo       *Repository
	jobRepo    *jobs.Repository
	tenderRepo *tenders.Repository
	users      users.Service
	notifier   notifications.Service
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the application service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application repo is required")
	}
	if params.JobRepo == nil || params.TenderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "posting repos are required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		jobRepo:    params.JobRepo,
		tenderRepo: params.TenderRepo,
		users:      params.Users,
		notifier:   params.Notifier,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func (s *service) ApplyToJob(ctx context.Context, actor *models.User, params ApplyJobParams) (*models.AppliedJob, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.RoleJobSeeker {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	if err := s.users.EnsureProfileComplete(ctx, actor.ID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.FindByID(ctx, params.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job.Status != enums.PostingStatusActive || job.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeClosed, "this posting is closed")
	}

	app := &models.AppliedJob{
		UserID:      actor.ID,
		JobID:       job.ID,
		ShortLetter: params.ShortLetter,
		ResumeID:    params.ResumeID,
	}
	if err := s.repo.CreateJobApplication(ctx, app); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already applied to this posting")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}

	s.notify(ctx, notifications.NotifyParams{
		UserID:        job.UserID,
		Kind:          enums.NotificationTypeApplied,
		SenderID:      &actor.ID,
		ApplicationID: &app.ID,
		JobID:         &job.ID,
		EmailSubject:  "New application received",
		EmailHTML:     fmt.Sprintf("<p><strong>%s</strong> applied to <strong>%s</strong>.</p>", actor.Name, job.Title),
	})
	return app, nil
}

func (s *service) UpdateJobApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID, params ApplyJobParams) (*models.AppliedJob, error) {
	app, err := s.ownJobApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.EditableOn(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeClosed, "applications can only be edited on the day they were submitted")
	}

	app.ShortLetter = params.ShortLetter
	if params.ResumeID != nil {
		app.ResumeID = params.ResumeID
	}
	if err := s.repo.UpdateJobApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
	}
	return app, nil
}

func (s *service) RevokeJobApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) error {
	app, err := s.ownJobApplication(ctx, actor, applicationID)
	if err != nil {
		return err
	}
	if !app.EditableOn(s.now()) {
		return pkgerrors.New(pkgerrors.CodeClosed, "applications can only be revoked on the day they were submitted")
	}
	if err := s.repo.RemoveJobApplication(ctx, app.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke application")
	}
	return nil
}

func (s *service) DecideJob(ctx context.Context, actor *models.User, applicationID uuid.UUID, params DecideParams) (*models.AppliedJob, error) {
	if !params.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid action").WithField("action")
	}

	app, err := s.repo.FindJobApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if app.Job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "application has no posting")
	}
	if err := s.ensurePostingOwner(actor, app.Job.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	kind := enums.NotificationTypeRejected
	subject := "Application update"
	body := fmt.Sprintf("<p>Your application for <strong>%s</strong> was not successful this time.</p>", app.Job.Title)

	switch params.Action {
	case enums.DecideActionShortlisted:
		app.ShortlistedAt = &now
		app.RejectedAt = nil
		kind = enums.NotificationTypeShortlisted
		subject = "You have been shortlisted"
		body = fmt.Sprintf("<p>You were shortlisted for <strong>%s</strong>.</p>", app.Job.Title)
	case enums.DecideActionRejected:
		app.RejectedAt = &now
		app.ShortlistedAt = nil
	case enums.DecideActionBlacklisted:
		app.RejectedAt = &now
		app.ShortlistedAt = nil
		if err := s.blacklist(ctx, app.Job.UserID, app.UserID, params.Reason); err != nil {
			return nil, err
		}
	case enums.DecideActionPlannedInterviews:
		if params.InterviewAt == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "interview time is required").WithField("interview_at")
		}
		if app.ShortlistedAt == nil {
			app.ShortlistedAt = &now
		}
		app.RejectedAt = nil
		app.InterviewAt = params.InterviewAt
		kind = enums.NotificationTypePlannedInterviews
		subject = "Interview scheduled"
		body = fmt.Sprintf("<p>An interview for <strong>%s</strong> was scheduled for %s.</p>",
			app.Job.Title, params.InterviewAt.Format("Jan 2, 2006 at 15:04"))
	}

	if err := s.repo.UpdateJobApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save decision")
	}

	if params.Action != enums.DecideActionBlacklisted {
		s.notify(ctx, notifications.NotifyParams{
			UserID:        app.UserID,
			Kind:          kind,
			SenderID:      &actor.ID,
			ApplicationID: &app.ID,
			JobID:         &app.JobID,
			EmailSubject:  subject,
			EmailHTML:     body,
		})
	}
	return app, nil
}

func (s *service) JobApplicants(ctx context.Context, actor *models.User, jobID uuid.UUID, includeBlacklisted bool, page pagination.Params) ([]models.AppliedJob, int64, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if err := s.ensurePostingOwner(actor, job.UserID); err != nil {
		return nil, 0, err
	}

	exclude, err := s.exclusions(ctx, job.UserID, includeBlacklisted)
	if err != nil {
		return nil, 0, err
	}
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.JobApplicants(ctx, jobID, exclude, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applicants")
	}
	return rows, count, nil
}

func (s *service) MyJobApplications(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedJob, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.JobApplicationsByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return rows, count, nil
}

func (s *service) ApplyToTender(ctx context.Context, actor *models.User, params ApplyTenderParams) (*models.AppliedTender, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.RoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}

	tender, err := s.tenderRepo.FindByID(ctx, params.TenderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}
	if tender.Status != enums.PostingStatusActive || tender.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeClosed, "this posting is closed")
	}

	app := &models.AppliedTender{
		UserID:       actor.ID,
		TenderID:     tender.ID,
		ShortLetter:  params.ShortLetter,
		AttachmentID: params.AttachmentID,
	}
	if err := s.repo.CreateTenderApplication(ctx, app); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already applied to this posting")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}

	s.notify(ctx, notifications.NotifyParams{
		UserID:        tender.UserID,
		Kind:          enums.NotificationTypeApplied,
		SenderID:      &actor.ID,
		ApplicationID: &app.ID,
		TenderID:      &tender.ID,
		EmailSubject:  "New application received",
		EmailHTML:     fmt.Sprintf("<p><strong>%s</strong> applied to <strong>%s</strong>.</p>", actor.Name, tender.Title),
	})
	return app, nil
}

func (s *service) UpdateTenderApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID, params ApplyTenderParams) (*models.AppliedTender, error) {
	app, err := s.ownTenderApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.EditableOn(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeClosed, "applications can only be edited on the day they were submitted")
	}

	app.ShortLetter = params.ShortLetter
	if params.AttachmentID != nil {
		app.AttachmentID = params.AttachmentID
	}
	if err := s.repo.UpdateTenderApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
	}
	return app, nil
}

func (s *service) RevokeTenderApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) error {
	app, err := s.ownTenderApplication(ctx, actor, applicationID)
	if err != nil {
		return err
	}
	if !app.EditableOn(s.now()) {
		return pkgerrors.New(pkgerrors.CodeClosed, "applications can only be revoked on the day they were submitted")
	}
	if err := s.repo.RemoveTenderApplication(ctx, app.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke application")
	}
	return nil
}

func (s *service) DecideTender(ctx context.Context, actor *models.User, applicationID uuid.UUID, params DecideParams) (*models.AppliedTender, error) {
	switch params.Action {
	case enums.DecideActionShortlisted, enums.DecideActionRejected, enums.DecideActionBlacklisted:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid action").WithField("action")
	}

	app, err := s.repo.FindTenderApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if app.Tender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "application has no posting")
	}
	if err := s.ensurePostingOwner(actor, app.Tender.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	kind := enums.NotificationTypeRejected
	subject := "Application update"
	body := fmt.Sprintf("<p>Your application for <strong>%s</strong> was not successful this time.</p>", app.Tender.Title)

	switch params.Action {
	case enums.DecideActionShortlisted:
		app.ShortlistedAt = &now
		app.RejectedAt = nil
		kind = enums.NotificationTypeShortlisted
		subject = "You have been shortlisted"
		body = fmt.Sprintf("<p>You were shortlisted for <strong>%s</strong>.</p>", app.Tender.Title)
	case enums.DecideActionRejected:
		app.RejectedAt = &now
		app.ShortlistedAt = nil
	case enums.DecideActionBlacklisted:
		app.RejectedAt = &now
		app.ShortlistedAt = nil
		if err := s.blacklist(ctx, app.Tender.UserID, app.UserID, params.Reason); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateTenderApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save decision")
	}

	if params.Action != enums.DecideActionBlacklisted {
		s.notify(ctx, notifications.NotifyParams{
			UserID:        app.UserID,
			Kind:          kind,
			SenderID:      &actor.ID,
			ApplicationID: &app.ID,
			TenderID:      &app.TenderID,
			EmailSubject:  subject,
			EmailHTML:     body,
		})
	}
	return app, nil
}

func (s *service) TenderApplicants(ctx context.Context, actor *models.User, tenderID uuid.UUID, includeBlacklisted bool, page pagination.Params) ([]models.AppliedTender, int64, error) {
	tender, err := s.tenderRepo.FindByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "tender not found")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tender")
	}
	if err := s.ensurePostingOwner(actor, tender.UserID); err != nil {
		return nil, 0, err
	}

	exclude, err := s.exclusions(ctx, tender.UserID, includeBlacklisted)
	if err != nil {
		return nil, 0, err
	}
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.TenderApplicants(ctx, tenderID, exclude, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applicants")
	}
	return rows, count, nil
}

func (s *service) MyTenderApplications(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.AppliedTender, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.TenderApplicationsByUser(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return rows, count, nil
}

func (s *service) BlacklistUser(ctx context.Context, actor *models.User, userID uuid.UUID, reason string) error {
	if err := s.ensureEmployer(actor); err != nil {
		return err
	}
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required").WithField("reason")
	}
	return s.blacklist(ctx, actor.ID, userID, reason)
}

func (s *service) UnblacklistUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if err := s.ensureEmployer(actor); err != nil {
		return err
	}
	affected, err := s.repo.RemoveBlacklist(ctx, actor.ID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove blacklist entry")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "blacklist entry not found")
	}
	return nil
}

func (s *service) ListBlacklist(ctx context.Context, actor *models.User, page pagination.Params) ([]models.BlackList, int64, error) {
	if err := s.ensureEmployer(actor); err != nil {
		return nil, 0, err
	}
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListBlacklist(ctx, actor.ID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blacklist")
	}
	return rows, count, nil
}

func (s *service) blacklist(ctx context.Context, ownerID, userID uuid.UUID, reason string) error {
	if reason == "" {
		reason = "blacklisted from application review"
	}
	row := &models.BlackList{UserID: ownerID, BlacklistedUserID: userID, Reason: reason}
	if err := s.repo.CreateBlacklist(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blacklist entry")
	}
	return nil
}

func (s *service) exclusions(ctx context.Context, ownerID uuid.UUID, includeBlacklisted bool) ([]uuid.UUID, error) {
	if includeBlacklisted {
		return nil, nil
	}
	ids, err := s.repo.BlacklistedIDs(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blacklist")
	}
	return ids, nil
}

func (s *service) ownJobApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) (*models.AppliedJob, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	app, err := s.repo.FindJobApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return app, nil
}

func (s *service) ownTenderApplication(ctx context.Context, actor *models.User, applicationID uuid.UUID) (*models.AppliedTender, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	app, err := s.repo.FindTenderApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	if app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return app, nil
}

func (s *service) ensurePostingOwner(actor *models.User, ownerID uuid.UUID) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role == enums.RoleAdmin || actor.ID == ownerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
}

func (s *service) ensureEmployer(actor *models.User) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role == enums.RoleEmployer || actor.Role == enums.RoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
}

func (s *service) notify(ctx context.Context, params notifications.NotifyParams) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, params)
}
