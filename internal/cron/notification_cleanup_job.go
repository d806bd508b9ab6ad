package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/koor-works/koor-backend/pkg/logger"
)

// Notifications older than this are gone for good; the bell feed only
// paginates back so far anyway.
const defaultNotificationRetentionDays = 90

type notificationSweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the notification retention sweep.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository notificationSweeper
	Retention  int
}

type notificationCleanupJob struct {
	logg          *logger.Logger
	sweeper       notificationSweeper
	retentionDays int
	now           func() time.Time
}

// NewNotificationCleanupJob builds the daily job that prunes
// notification rows past the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("notification cleanup job requires a logger")
	case params.Repository == nil:
		return nil, errors.New("notification cleanup job requires a repository")
	}
	job := &notificationCleanupJob{
		logg:          params.Logger,
		sweeper:       params.Repository,
		retentionDays: params.Retention,
		now:           time.Now,
	}
	if job.retentionDays <= 0 {
		job.retentionDays = defaultNotificationRetentionDays
	}
	return job, nil
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	pruned, err := j.sweeper.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retentionDays,
		"rows_deleted":   pruned,
	}), "notification cleanup complete")
	return nil
}
