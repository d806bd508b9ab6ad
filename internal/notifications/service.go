package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the notification service.
type ServiceParams struct {
	Repo     *Repository
	UserRepo *users.Repository
	Email    email.Sender
	Logger   *logger.Logger
}

// NotifyParams is one fan-out request. The optional references give the
// client enough to deep-link; EmailSubject/EmailHTML are only used when the
// recipient opted into email.
type NotifyParams struct {
	UserID         uuid.UUID
	Kind           enums.NotificationType
	SenderID       *uuid.UUID
	ApplicationID  *uuid.UUID
	JobID          *uuid.UUID
	TenderID       *uuid.UUID
	FilterID       *uuid.UUID
	ConversationID *uuid.UUID
	EmailSubject   string
	EmailHTML      string
}

// Service fans notifications out to the in-app feed and email, honoring the
// recipient's preferences. Delivery failures never fail the triggering
// operation.
type Service interface {
	Notify(ctx context.Context, params NotifyParams)
	List(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Notification, int64, error)
	MarkSeen(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllSeen(ctx context.Context, userID uuid.UUID) error
	UnseenCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo     *Repository
	userRepo *users.Repository
	email    email.Sender
	logg     *logger.Logger
}

// NewService builds a notification service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, userRepo: params.UserRepo, email: params.Email, logg: params.Logger}, nil
}

func (s *service) Notify(ctx context.Context, params NotifyParams) {
	ctx = s.logg.WithUserID(ctx, params.UserID.String())

	recipient, err := s.userRepo.FindByID(ctx, params.UserID)
	if err != nil {
		s.logg.Error(ctx, "notification recipient lookup failed", err)
		return
	}
	if !recipient.IsActive {
		return
	}

	if recipient.GetNotification {
		row := &models.Notification{
			UserID:         params.UserID,
			Kind:           params.Kind,
			SenderID:       params.SenderID,
			ApplicationID:  params.ApplicationID,
			JobID:          params.JobID,
			TenderID:       params.TenderID,
			FilterID:       params.FilterID,
			ConversationID: params.ConversationID,
		}
		if err := s.repo.Create(ctx, row); err != nil {
			s.logg.Error(ctx, "notification insert failed", err)
		}
	}

	if recipient.GetEmail && s.email != nil && params.EmailSubject != "" &&
		recipient.Email != nil && *recipient.Email != "" {
		msg := email.Message{
			To:      *recipient.Email,
			Subject: params.EmailSubject,
			HTML:    params.EmailHTML,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logg.Error(ctx, "notification email failed", err)
		}
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Notification, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, count, nil
}

func (s *service) MarkSeen(ctx context.Context, userID, notificationID uuid.UUID) error {
	affected, err := s.repo.MarkSeen(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification seen")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllSeen(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllSeen(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications seen")
	}
	return nil
}

func (s *service) UnseenCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.UnseenCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}
	return count, nil
}
