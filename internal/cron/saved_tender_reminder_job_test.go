package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

type fakeTenderExpirySource struct {
	tenders  []models.Tender
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeTenderExpirySource) ExpiringBetween(_ context.Context, from, to time.Time) ([]models.Tender, error) {
	f.lastFrom = from
	f.lastTo = to
	return f.tenders, nil
}

type fakeSavedTenderSource struct {
	rows     []models.SavedTender
	notified []uuid.UUID
}

func (f *fakeSavedTenderSource) UnnotifiedForTenders(context.Context, []uuid.UUID) ([]models.SavedTender, error) {
	return f.rows, nil
}

func (f *fakeSavedTenderSource) MarkNotified(_ context.Context, id uuid.UUID) error {
	f.notified = append(f.notified, id)
	return nil
}

func TestSavedTenderReminderJobRemindsEachSaverOnce(t *testing.T) {
	tender := models.Tender{Title: "Bridge repair"}
	tender.ID = uuid.New()
	saver := uuid.New()
	row := models.SavedTender{UserID: saver, TenderID: tender.ID}
	row.ID = uuid.New()

	tenders := &fakeTenderExpirySource{tenders: []models.Tender{tender}}
	saved := &fakeSavedTenderSource{rows: []models.SavedTender{row}}
	sink := &fakeNotifier{}

	jobIface, err := NewSavedTenderReminderJob(SavedTenderReminderJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Tenders:  tenders,
		Saved:    saved,
		Notifier: sink,
	})
	if err != nil {
		t.Fatalf("NewSavedTenderReminderJob: %v", err)
	}
	job := jobIface.(*savedTenderReminderJob)
	now := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !tenders.lastFrom.Equal(now) || !tenders.lastTo.Equal(now.Add(defaultReminderWindow)) {
		t.Fatalf("unexpected window %s .. %s", tenders.lastFrom, tenders.lastTo)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(sink.calls))
	}
	call := sink.calls[0]
	if call.UserID != saver {
		t.Fatalf("reminded wrong user")
	}
	if call.Kind != enums.NotificationTypeExpiredSaveJob {
		t.Fatalf("wrong kind: %s", call.Kind)
	}
	if call.TenderID == nil || *call.TenderID != tender.ID {
		t.Fatalf("expected tender id on reminder")
	}
	if len(saved.notified) != 1 || saved.notified[0] != row.ID {
		t.Fatalf("expected saved row marked notified")
	}
}

func TestSavedTenderReminderJobNoCandidates(t *testing.T) {
	sink := &fakeNotifier{}
	jobIface, err := NewSavedTenderReminderJob(SavedTenderReminderJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Tenders:  &fakeTenderExpirySource{},
		Saved:    &fakeSavedTenderSource{},
		Notifier: sink,
	})
	if err != nil {
		t.Fatalf("NewSavedTenderReminderJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("expected no reminders, got %d", len(sink.calls))
	}
}
