package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

type fakeFilterSource struct {
	jobFilters    []models.JobFilter
	tenderFilters []models.TenderFilter
	err           error
}

func (f *fakeFilterSource) NotifyingJobFilters(context.Context) ([]models.JobFilter, error) {
	return f.jobFilters, f.err
}

func (f *fakeFilterSource) NotifyingTenderFilters(context.Context) ([]models.TenderFilter, error) {
	return f.tenderFilters, f.err
}

type fakeJobSource struct {
	jobs       []models.Job
	lastCutoff time.Time
}

func (f *fakeJobSource) ActiveSince(_ context.Context, cutoff time.Time) ([]models.Job, error) {
	f.lastCutoff = cutoff
	return f.jobs, nil
}

type fakeTenderSource struct {
	tenders []models.Tender
}

func (f *fakeTenderSource) ActiveSince(context.Context, time.Time) ([]models.Tender, error) {
	return f.tenders, nil
}

type fakeDedupe struct {
	seen map[uuid.UUID]bool
}

func (f *fakeDedupe) AdvanceFilterExists(_ context.Context, filterID uuid.UUID, _, _ *uuid.UUID) (bool, error) {
	return f.seen[filterID], nil
}

type fakeNotifier struct {
	calls []notifications.NotifyParams
}

func (f *fakeNotifier) Notify(_ context.Context, params notifications.NotifyParams) {
	f.calls = append(f.calls, params)
}

func newFilterMatchJob(t *testing.T, filters *fakeFilterSource, jobs *fakeJobSource, tenders *fakeTenderSource, dedupe *fakeDedupe, sink *fakeNotifier) *filterMatchJob {
	t.Helper()
	if dedupe.seen == nil {
		dedupe.seen = map[uuid.UUID]bool{}
	}
	jobIface, err := NewFilterMatchJob(FilterMatchJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Filters:  filters,
		Jobs:     jobs,
		Tenders:  tenders,
		Dedupe:   dedupe,
		Notifier: sink,
	})
	if err != nil {
		t.Fatalf("NewFilterMatchJob: %v", err)
	}
	return jobIface.(*filterMatchJob)
}

func TestFilterMatchJobNotifiesMatchingOwners(t *testing.T) {
	owner := uuid.New()
	filter := models.JobFilter{
		UserID:         owner,
		Title:          "Nairobi carpentry",
		Country:        "Kenya",
		Categories:     pq.StringArray{"carpentry"},
		IsNotification: true,
	}
	filter.ID = uuid.New()

	match := models.Job{Title: "Site carpenter", Country: "Kenya", Categories: pq.StringArray{"Carpentry"}}
	match.ID = uuid.New()
	miss := models.Job{Title: "Accountant", Country: "Kenya", Categories: pq.StringArray{"finance"}}
	miss.ID = uuid.New()

	sink := &fakeNotifier{}
	job := newFilterMatchJob(t,
		&fakeFilterSource{jobFilters: []models.JobFilter{filter}},
		&fakeJobSource{jobs: []models.Job{match, miss}},
		&fakeTenderSource{},
		&fakeDedupe{},
		sink,
	)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.calls))
	}
	call := sink.calls[0]
	if call.UserID != owner {
		t.Fatalf("notified wrong user: %s", call.UserID)
	}
	if call.Kind != enums.NotificationTypeAdvanceFilter {
		t.Fatalf("wrong kind: %s", call.Kind)
	}
	if call.JobID == nil || *call.JobID != match.ID {
		t.Fatalf("expected job id %s in notification", match.ID)
	}
	if call.FilterID == nil || *call.FilterID != filter.ID {
		t.Fatalf("expected filter id %s in notification", filter.ID)
	}
}

func TestFilterMatchJobSkipsAlreadyNotifiedPairs(t *testing.T) {
	filter := models.JobFilter{UserID: uuid.New(), Title: "Any", IsNotification: true}
	filter.ID = uuid.New()
	posting := models.Job{Title: "Anything"}
	posting.ID = uuid.New()

	sink := &fakeNotifier{}
	job := newFilterMatchJob(t,
		&fakeFilterSource{jobFilters: []models.JobFilter{filter}},
		&fakeJobSource{jobs: []models.Job{posting}},
		&fakeTenderSource{},
		&fakeDedupe{seen: map[uuid.UUID]bool{filter.ID: true}},
		sink,
	)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("expected no notifications, got %d", len(sink.calls))
	}
}

func TestFilterMatchJobMatchesTenders(t *testing.T) {
	owner := uuid.New()
	filter := models.TenderFilter{
		UserID:         owner,
		Title:          "Road works",
		Sectors:        pq.StringArray{"infrastructure"},
		IsNotification: true,
	}
	filter.ID = uuid.New()
	tender := models.Tender{Title: "Highway resurfacing", Sectors: pq.StringArray{"Infrastructure"}}
	tender.ID = uuid.New()

	sink := &fakeNotifier{}
	job := newFilterMatchJob(t,
		&fakeFilterSource{tenderFilters: []models.TenderFilter{filter}},
		&fakeJobSource{},
		&fakeTenderSource{tenders: []models.Tender{tender}},
		&fakeDedupe{},
		sink,
	)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.calls))
	}
	if sink.calls[0].TenderID == nil || *sink.calls[0].TenderID != tender.ID {
		t.Fatalf("expected tender id in notification")
	}
}

func TestFilterMatchJobUsesLookbackCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := &fakeJobSource{}
	job := newFilterMatchJob(t,
		&fakeFilterSource{jobFilters: []models.JobFilter{{Title: "any", IsNotification: true}}},
		jobs,
		&fakeTenderSource{},
		&fakeDedupe{},
		&fakeNotifier{},
	)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-defaultFilterLookback)
	if !jobs.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, jobs.lastCutoff)
	}
}

func TestFilterMatchJobPropagatesRepoErrors(t *testing.T) {
	job := newFilterMatchJob(t,
		&fakeFilterSource{err: errors.New("boom")},
		&fakeJobSource{},
		&fakeTenderSource{},
		&fakeDedupe{},
		&fakeNotifier{},
	)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
