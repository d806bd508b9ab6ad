package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/koor-works/koor-backend/pkg/logger"
)

const defaultSessionGrace = 24 * time.Hour

// SessionCleanupJobParams configure the expired-session sweeper.
type SessionCleanupJobParams struct {
	Logger   *logger.Logger
	Sessions sessionSweeper
	Grace    time.Duration
}

type sessionSweeper interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewSessionCleanupJob builds the job that removes long-expired session rows.
// The grace window keeps freshly expired rows around so refresh attempts can
// still be rejected with a precise reason.
func NewSessionCleanupJob(params SessionCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultSessionGrace
	}
	return &sessionCleanupJob{
		logg:     params.Logger,
		sessions: params.Sessions,
		grace:    grace,
		now:      time.Now,
	}, nil
}

type sessionCleanupJob struct {
	logg     *logger.Logger
	sessions sessionSweeper
	grace    time.Duration
	now      func() time.Time
}

func (j *sessionCleanupJob) Name() string { return "session-cleanup" }

func (j *sessionCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	deleted, err := j.sessions.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("session cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "session cleanup complete")
	return nil
}
