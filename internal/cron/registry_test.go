package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrder(t *testing.T) {
	first := &namedJob{name: "sessions"}
	second := &namedJob{name: "notifications"}
	registry := NewRegistry(first, second)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Same(t, first, jobs[0].(*namedJob))
	require.Same(t, second, jobs[1].(*namedJob))
}

func TestRegistrySkipsNilAndDuplicateJobs(t *testing.T) {
	registry := NewRegistry(nil, &namedJob{name: "sweep"})
	registry.Register(&namedJob{name: "sweep"})

	require.Len(t, registry.Jobs(), 1)
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&namedJob{name: "sweep"})

	registry.Jobs()[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}
