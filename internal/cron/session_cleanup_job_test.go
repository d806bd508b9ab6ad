package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/koor-works/koor-backend/pkg/logger"
)

type fakeSessionSweeper struct {
	lastCutoff time.Time
	deleted    int64
	err        error
}

func (f *fakeSessionSweeper) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	return f.deleted, f.err
}

func TestSessionCleanupJobAppliesGraceWindow(t *testing.T) {
	now := time.Date(2026, 2, 15, 3, 0, 0, 0, time.UTC)
	sweeper := &fakeSessionSweeper{deleted: 7}

	jobIface, err := NewSessionCleanupJob(SessionCleanupJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Sessions: sweeper,
	})
	if err != nil {
		t.Fatalf("NewSessionCleanupJob: %v", err)
	}
	job := jobIface.(*sessionCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-defaultSessionGrace)
	if !sweeper.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, sweeper.lastCutoff)
	}
}

func TestSessionCleanupJobPropagatesErrors(t *testing.T) {
	jobIface, err := NewSessionCleanupJob(SessionCleanupJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Sessions: &fakeSessionSweeper{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewSessionCleanupJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
