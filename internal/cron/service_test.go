package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koor-works/koor-backend/pkg/logger"
)

type recordingLock struct {
	available bool
	acquired  int
	released  int
}

func (l *recordingLock) Acquire(context.Context) (bool, error) {
	l.acquired++
	if !l.available {
		return false, nil
	}
	l.available = false
	return true, nil
}

func (l *recordingLock) Release(context.Context) error {
	l.released++
	l.available = true
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newTestScheduler(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	require.NoError(t, err)
	return svc
}

func TestCycleRunsEveryJobDespiteFailures(t *testing.T) {
	healthy := &countingJob{name: "sessions"}
	broken := &countingJob{name: "reminders", err: errors.New("smtp down")}
	lock := &recordingLock{available: true}
	svc := newTestScheduler(t, lock, broken, healthy)

	require.NoError(t, svc.runCycle(context.Background()))

	require.Equal(t, 1, broken.runs)
	require.Equal(t, 1, healthy.runs)
	require.Equal(t, 1, lock.released)
}

func TestCycleSkipsWhenLockIsHeld(t *testing.T) {
	job := &countingJob{name: "sweep"}
	lock := &recordingLock{available: false}
	svc := newTestScheduler(t, lock, job)

	require.NoError(t, svc.runCycle(context.Background()))

	require.Zero(t, job.runs)
	require.Zero(t, lock.released)
}

func TestNewServiceRequiresLogger(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &recordingLock{}})
	require.Error(t, err)
}
