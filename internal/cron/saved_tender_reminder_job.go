package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

const defaultReminderWindow = 48 * time.Hour

// SavedTenderReminderJobParams configure the expiring-saved-tender reminder.
type SavedTenderReminderJobParams struct {
	Logger   *logger.Logger
	Tenders  tenderExpirySource
	Saved    savedTenderSource
	Notifier notifier
	Window   time.Duration
}

type tenderExpirySource interface {
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Tender, error)
}

type savedTenderSource interface {
	UnnotifiedForTenders(ctx context.Context, tenderIDs []uuid.UUID) ([]models.SavedTender, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// NewSavedTenderReminderJob builds the job that warns vendors before a
// bookmarked tender's deadline passes. Each saved row is reminded once.
func NewSavedTenderReminderJob(params SavedTenderReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tenders == nil {
		return nil, fmt.Errorf("tenders repository required")
	}
	if params.Saved == nil {
		return nil, fmt.Errorf("saved repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultReminderWindow
	}
	return &savedTenderReminderJob{
		logg:     params.Logger,
		tenders:  params.Tenders,
		saved:    params.Saved,
		notifier: params.Notifier,
		window:   window,
		now:      time.Now,
	}, nil
}

type savedTenderReminderJob struct {
	logg     *logger.Logger
	tenders  tenderExpirySource
	saved    savedTenderSource
	notifier notifier
	window   time.Duration
	now      func() time.Time
}

func (j *savedTenderReminderJob) Name() string { return "saved-tender-reminder" }

func (j *savedTenderReminderJob) Run(ctx context.Context) error {
	from := j.now().UTC()
	to := from.Add(j.window)

	expiring, err := j.tenders.ExpiringBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load expiring tenders: %w", err)
	}
	if len(expiring) == 0 {
		j.logg.Info(ctx, "no saved tenders near expiry")
		return nil
	}

	byID := make(map[uuid.UUID]*models.Tender, len(expiring))
	ids := make([]uuid.UUID, 0, len(expiring))
	for i := range expiring {
		byID[expiring[i].ID] = &expiring[i]
		ids = append(ids, expiring[i].ID)
	}

	rows, err := j.saved.UnnotifiedForTenders(ctx, ids)
	if err != nil {
		return fmt.Errorf("load saved rows: %w", err)
	}

	reminded := 0
	for i := range rows {
		row := &rows[i]
		tender, ok := byID[row.TenderID]
		if !ok {
			continue
		}
		j.notifier.Notify(ctx, notifications.NotifyParams{
			UserID:       row.UserID,
			Kind:         enums.NotificationTypeExpiredSaveJob,
			TenderID:     &tender.ID,
			EmailSubject: fmt.Sprintf("Saved tender %q is about to close", tender.Title),
			EmailHTML:    fmt.Sprintf("<p>The tender <strong>%s</strong> you saved closes soon. Apply before the deadline.</p>", tender.Title),
		})
		if err := j.saved.MarkNotified(ctx, row.ID); err != nil {
			return fmt.Errorf("mark notified after %d reminders: %w", reminded, err)
		}
		reminded++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window_hours": j.window.Hours(),
		"expiring":     len(expiring),
		"reminded":     reminded,
	})
	j.logg.Info(logCtx, "saved tender reminder run complete")
	return nil
}
