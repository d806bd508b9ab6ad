package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	runStatusSuccess = "success"
	runStatusFailure = "failure"
)

// CronJobMetrics tracks scheduled job outcomes and run times. A zero
// value is a no-op recorder, which lets the worker run without a
// registry in tests.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewCronJobMetrics registers the worker job collectors on reg. Passing
// a nil registerer yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	m := &CronJobMetrics{}
	if reg == nil {
		return m
	}
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "koor_worker_job_duration_seconds",
		Help:    "Wall-clock duration of scheduled worker jobs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "koor_worker_job_runs_total",
		Help: "Completed worker job runs by outcome.",
	}, []string{"job", "status"})
	reg.MustRegister(m.duration, m.runs)
	return m
}

// ObserveDuration records how long the named job ran.
func (m *CronJobMetrics) ObserveDuration(job string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(jobLabel(job)).Observe(elapsed.Seconds())
}

// IncSuccess counts a clean run of the named job.
func (m *CronJobMetrics) IncSuccess(job string) {
	m.countRun(job, runStatusSuccess)
}

// IncFailure counts a failed run of the named job.
func (m *CronJobMetrics) IncFailure(job string) {
	m.countRun(job, runStatusFailure)
}

func (m *CronJobMetrics) countRun(job, status string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(jobLabel(job), status).Inc()
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
