// Package thumbnails extracts preview frames from a running frame job and
// renders them into contact sheets.
package thumbnails

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/smazurov/vidshrink/internal/encoder"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
)

// Extraction errors.
var (
	ErrStalled  = errors.New("frame job stalled")
	ErrStaleJob = errors.New("frame job is no longer the active job")
)

// Default timing of the extraction loop.
const (
	DefaultStallTimeout = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// State is the extraction loop state.
type State string

// Extraction states.
const (
	StateRunning  State = "running"  // job active, missing frames are retried
	StateDraining State = "draining" // job finished, missing frames are skipped
	StateDone     State = "done"
)

// Frame is one extracted preview image.
type Frame struct {
	Index int           // 1-based frame number
	Time  time.Duration // position in the clip
	Name  string        // workspace file the frame was read from
	Data  []byte
}

// Options tunes the extraction loop.
type Options struct {
	StallTimeout time.Duration
	PollInterval time.Duration
}

// Extractor reads frames written by a frame job from a workspace.
type Extractor struct {
	ws      encoder.Workspace
	opts    Options
	logger  *slog.Logger
	isStale func(*encoder.Job) bool
}

// NewExtractor creates an extractor over ws. Zero options take the defaults.
func NewExtractor(ws encoder.Workspace, opts Options, logger *slog.Logger) *Extractor {
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = DefaultStallTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Extractor{
		ws:      ws,
		opts:    opts,
		logger:  logger,
		isStale: func(j *encoder.Job) bool { return j.Superseded() },
	}
}

// ForRunner binds staleness checks to runner: a job that is no longer the
// runner's current job is stale.
func (e *Extractor) ForRunner(r *encoder.Runner) *Extractor {
	e.isStale = func(j *encoder.Job) bool { return !r.IsCurrent(j) }
	return e
}

// Frames returns the frames of job in index order, up to
// floor(duration/interval) of them. The sequence is lazy and single-use.
// Each frame file is unlinked once read. Frames that never appear are
// skipped once the job has finished. If no frame arrives for the stall
// timeout while the job is still running, the sequence ends with ErrStalled.
// Stopping iteration early leaves unread frame files in the workspace.
func (e *Extractor) Frames(ctx context.Context, job *encoder.Job, duration, interval float64) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		if e.isStale(job) {
			yield(Frame{}, fmt.Errorf("%w: %s", ErrStaleJob, job.ID))
			return
		}
		l := &loop{
			e:        e,
			job:      job,
			count:    ffmpeg.FrameCount(duration, interval),
			interval: interval,
			state:    StateRunning,
		}
		l.run(ctx, yield)
	}
}

type loop struct {
	e        *Extractor
	job      *encoder.Job
	count    int
	interval float64
	state    State
	index    int
}

func (l *loop) run(ctx context.Context, yield func(Frame, error) bool) {
	logger := l.e.logger.With("job_id", l.job.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wake := l.watch(ctx)
	timer := time.NewTimer(l.e.opts.PollInterval)
	defer timer.Stop()

	lastYield := time.Now()
	for l.index = 1; l.index <= l.count; {
		if err := ctx.Err(); err != nil {
			yield(Frame{}, err)
			return
		}

		name := ffmpeg.FrameName(l.index)
		data, err := l.e.ws.ReadFile(name)
		if err == nil {
			if unlinkErr := l.e.ws.Unlink(name); unlinkErr != nil {
				logger.Warn("Failed to unlink frame", "frame", name, "error", unlinkErr)
			}
			frame := Frame{
				Index: l.index,
				Time:  time.Duration(float64(l.index-1) * l.interval * float64(time.Second)),
				Name:  name,
				Data:  data,
			}
			l.index++
			if !yield(frame, nil) {
				return
			}
			lastYield = time.Now()
			continue
		}

		if l.state == StateDraining {
			logger.Debug("Skipping frame the job never produced", "frame", name)
			l.index++
			continue
		}

		if l.job.Finished() {
			if l.e.isStale(l.job) {
				yield(Frame{}, fmt.Errorf("%w: %s", ErrStaleJob, l.job.ID))
				return
			}
			l.state = StateDraining
			continue
		}

		if time.Since(lastYield) > l.e.opts.StallTimeout {
			logger.Warn("Frame job stalled", "frame", name, "timeout", l.e.opts.StallTimeout)
			yield(Frame{}, fmt.Errorf("%w: no frame for %s (waiting for %s)", ErrStalled, l.e.opts.StallTimeout, name))
			return
		}

		resetTimer(timer, l.e.opts.PollInterval)
		select {
		case <-timer.C:
		case <-wake:
		case <-l.job.Done():
			// Re-read once before skipping: the frame may have been written
			// just before the job finished.
		case <-ctx.Done():
		}
	}
	l.state = StateDone
}

// watch returns the workspace's file notifications, or nil when the
// workspace cannot provide them; receiving from nil blocks forever.
func (l *loop) watch(ctx context.Context) <-chan string {
	n, ok := l.e.ws.(encoder.Notifier)
	if !ok {
		return nil
	}
	ch, err := n.Watch(ctx)
	if err != nil {
		l.e.logger.Debug("Workspace notifications unavailable", "error", err)
		return nil
	}
	return ch
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
