package encoder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Runner starts encoder jobs on a backend, one at a time.
type Runner struct {
	backend Backend
	logger  *slog.Logger

	startMu sync.Mutex // serializes Start
	mu      sync.RWMutex
	current *Job
}

// NewRunner creates a runner for backend.
func NewRunner(backend Backend, logger *slog.Logger) *Runner {
	return &Runner{backend: backend, logger: logger}
}

// Workspace returns the backend's file namespace.
func (r *Runner) Workspace() Workspace {
	return r.backend
}

// Active returns the most recently started job, finished or not.
func (r *Runner) Active() *Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// IsCurrent reports whether job is the runner's most recent job.
func (r *Runner) IsCurrent(job *Job) bool {
	return job != nil && r.Active() == job && !job.Superseded()
}

// Start launches a job. A still-running previous job is terminated first and
// completes with ErrSuperseded. The job stops when ctx is cancelled.
func (r *Runner) Start(ctx context.Context, args []string, onLine LineFunc) *Job {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	if prev := r.Active(); prev != nil && !prev.Finished() {
		r.logger.Info("Terminating previous job", "job_id", prev.ID)
		prev.superseded.Store(true)
		prev.Cancel()
		<-prev.Done()
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := newJob(uuid.NewString(), args, cancel)

	r.mu.Lock()
	r.current = job
	r.mu.Unlock()

	r.logger.Debug("Starting job", "job_id", job.ID, "args", args)
	go func() {
		err := r.backend.Exec(jobCtx, args, onLine)
		job.finish(err)
		r.logger.Debug("Job finished", "job_id", job.ID, "error", job.Err())
	}()
	return job
}

// Run starts a job and waits for it.
func (r *Runner) Run(ctx context.Context, args []string, onLine LineFunc) error {
	return r.Start(ctx, args, onLine).Wait(ctx)
}
