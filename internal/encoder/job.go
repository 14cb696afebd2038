package encoder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one run of the encoder started by a Runner.
type Job struct {
	ID      string
	Args    []string
	Started time.Time

	cancel     context.CancelFunc
	done       chan struct{}
	err        error
	superseded atomic.Bool
	once       sync.Once
}

func newJob(id string, args []string, cancel context.CancelFunc) *Job {
	return &Job{
		ID:      id,
		Args:    args,
		Started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job result. It is only meaningful after Done is closed.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Finished reports whether Done is closed.
func (j *Job) Finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Superseded reports whether a newer job replaced this one.
func (j *Job) Superseded() bool {
	return j.superseded.Load()
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel asks the encoder to stop the job.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) finish(err error) {
	j.once.Do(func() {
		if j.superseded.Load() {
			err = ErrSuperseded
		}
		j.err = err
		j.cancel()
		close(j.done)
	})
}
