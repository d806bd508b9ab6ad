package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/recommend"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
)

const defaultFilterLookback = 24 * time.Hour

// FilterMatchJobParams configure the saved-filter match notifier.
type FilterMatchJobParams struct {
	Logger   *logger.Logger
	Filters  filterSource
	Jobs     jobSource
	Tenders  tenderSource
	Dedupe   filterDedupe
	Notifier notifier
	Lookback time.Duration
}

type filterSource interface {
	NotifyingJobFilters(ctx context.Context) ([]models.JobFilter, error)
	NotifyingTenderFilters(ctx context.Context) ([]models.TenderFilter, error)
}

type jobSource interface {
	ActiveSince(ctx context.Context, cutoff time.Time) ([]models.Job, error)
}

type tenderSource interface {
	ActiveSince(ctx context.Context, cutoff time.Time) ([]models.Tender, error)
}

type filterDedupe interface {
	AdvanceFilterExists(ctx context.Context, filterID uuid.UUID, jobID, tenderID *uuid.UUID) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, params notifications.NotifyParams)
}

// NewFilterMatchJob builds the job that pairs recent active postings with
// notification-enabled saved filters.
func NewFilterMatchJob(params FilterMatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Filters == nil {
		return nil, fmt.Errorf("filters repository required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("jobs repository required")
	}
	if params.Tenders == nil {
		return nil, fmt.Errorf("tenders repository required")
	}
	if params.Dedupe == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultFilterLookback
	}
	return &filterMatchJob{
		logg:     params.Logger,
		filters:  params.Filters,
		jobs:     params.Jobs,
		tenders:  params.Tenders,
		dedupe:   params.Dedupe,
		notifier: params.Notifier,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

type filterMatchJob struct {
	logg     *logger.Logger
	filters  filterSource
	jobs     jobSource
	tenders  tenderSource
	dedupe   filterDedupe
	notifier notifier
	lookback time.Duration
	now      func() time.Time
}

func (j *filterMatchJob) Name() string { return "filter-match" }

func (j *filterMatchJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.lookback)

	// A failure on one posting type must not starve the other.
	var runErr error
	jobsNotified, err := j.matchJobs(ctx, cutoff)
	if err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("match job filters: %w", err))
	}
	tendersNotified, err := j.matchTenders(ctx, cutoff)
	if err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("match tender filters: %w", err))
	}
	if runErr != nil {
		return runErr
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"jobs_notified":    jobsNotified,
		"tenders_notified": tendersNotified,
	})
	j.logg.Info(logCtx, "filter match run complete")
	return nil
}

func (j *filterMatchJob) matchJobs(ctx context.Context, cutoff time.Time) (int, error) {
	filters, err := j.filters.NotifyingJobFilters(ctx)
	if err != nil {
		return 0, fmt.Errorf("load job filters: %w", err)
	}
	if len(filters) == 0 {
		return 0, nil
	}
	candidates, err := j.jobs.ActiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("load recent jobs: %w", err)
	}

	notified := 0
	for fi := range filters {
		filter := &filters[fi]
		for ci := range candidates {
			job := &candidates[ci]
			if !recommend.MatchesJobFilter(filter, job) {
				continue
			}
			exists, err := j.dedupe.AdvanceFilterExists(ctx, filter.ID, &job.ID, nil)
			if err != nil {
				return notified, fmt.Errorf("dedupe lookup: %w", err)
			}
			if exists {
				continue
			}
			j.notifier.Notify(ctx, notifications.NotifyParams{
				UserID:       filter.UserID,
				Kind:         enums.NotificationTypeAdvanceFilter,
				JobID:        &job.ID,
				FilterID:     &filter.ID,
				EmailSubject: fmt.Sprintf("New job matching your filter %q", filter.Title),
				EmailHTML:    fmt.Sprintf("<p>The job <strong>%s</strong> matches your saved filter %q.</p>", job.Title, filter.Title),
			})
			notified++
		}
	}
	return notified, nil
}

func (j *filterMatchJob) matchTenders(ctx context.Context, cutoff time.Time) (int, error) {
	filters, err := j.filters.NotifyingTenderFilters(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tender filters: %w", err)
	}
	if len(filters) == 0 {
		return 0, nil
	}
	candidates, err := j.tenders.ActiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("load recent tenders: %w", err)
	}

	notified := 0
	for fi := range filters {
		filter := &filters[fi]
		for ci := range candidates {
			tender := &candidates[ci]
			if !recommend.MatchesTenderFilter(filter, tender) {
				continue
			}
			exists, err := j.dedupe.AdvanceFilterExists(ctx, filter.ID, nil, &tender.ID)
			if err != nil {
				return notified, fmt.Errorf("dedupe lookup: %w", err)
			}
			if exists {
				continue
			}
			j.notifier.Notify(ctx, notifications.NotifyParams{
				UserID:       filter.UserID,
				Kind:         enums.NotificationTypeAdvanceFilter,
				TenderID:     &tender.ID,
				FilterID:     &filter.ID,
				EmailSubject: fmt.Sprintf("New tender matching your filter %q", filter.Title),
				EmailHTML:    fmt.Sprintf("<p>The tender <strong>%s</strong> matches your saved filter %q.</p>", tender.Title, filter.Title),
			})
			notified++
		}
	}
	return notified, nil
}
