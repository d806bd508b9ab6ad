package cron

import "context"

// Job is one unit of scheduled background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the worker's job set. Jobs execute in registration order;
// a second job with an already-registered name is ignored so a sloppy main
// cannot double-run a sweep.
type Registry struct {
	ordered []Job
	names   map[string]struct{}
}

// NewRegistry builds a registry from the given jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: make(map[string]struct{})}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job unless its name is already taken.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if _, dup := r.names[job.Name()]; dup {
		return
	}
	r.names[job.Name()] = struct{}{}
	r.ordered = append(r.ordered, job)
}

// Jobs returns a copy of the job list in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.ordered))
	copy(out, r.ordered)
	return out
}
