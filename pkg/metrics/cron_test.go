package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsCountsRunsByOutcome(t *testing.T) {
	m := NewCronJobMetrics(prometheus.NewRegistry())

	m.IncSuccess("session-cleanup")
	m.IncSuccess("session-cleanup")
	m.IncFailure("session-cleanup")

	success := testutil.ToFloat64(m.runs.WithLabelValues("session-cleanup", runStatusSuccess))
	failure := testutil.ToFloat64(m.runs.WithLabelValues("session-cleanup", runStatusFailure))
	require.Equal(t, 2.0, success)
	require.Equal(t, 1.0, failure)
}

func TestCronJobMetricsRecordsDurations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("filter-match", 300*time.Millisecond)
	m.ObserveDuration("filter-match", 700*time.Millisecond)

	count := testutil.CollectAndCount(m.duration, "koor_worker_job_duration_seconds")
	require.Equal(t, 1, count)
}

func TestCronJobMetricsNormalizesEmptyJobName(t *testing.T) {
	m := NewCronJobMetrics(prometheus.NewRegistry())

	m.IncFailure("")

	failure := testutil.ToFloat64(m.runs.WithLabelValues("unknown", runStatusFailure))
	require.Equal(t, 1.0, failure)
}

func TestCronJobMetricsWithoutRegistryIsNoOp(t *testing.T) {
	m := NewCronJobMetrics(nil)

	// Must not panic with no collectors registered.
	m.ObserveDuration("sweep", time.Second)
	m.IncSuccess("sweep")
	m.IncFailure("sweep")
}
