// Package transcode drives the encoder for one source at a time: probing it,
// encoding a planned target and extracting previews.
package transcode

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/vidshrink/internal/encoder"
	"github.com/smazurov/vidshrink/internal/encoders"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/media"
	"github.com/smazurov/vidshrink/internal/metrics"
	"github.com/smazurov/vidshrink/internal/thumbnails"
)

// Session errors.
var (
	ErrImplausibleTarget = errors.New("target cannot be reached within its budget")
	ErrPreviewStopped    = errors.New("preview generation stopped")
)

const diagnosticLines = 200

// ProbeError reports a probe whose output did not describe a usable source.
type ProbeError struct {
	Input       string
	Missing     []string // "container", "video"
	Diagnostics string   // raw encoder output
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: no %s record found", e.Input, strings.Join(e.Missing, " or "))
}

// Options configures a Session. Zero values take the encoder defaults.
type Options struct {
	Preset       string
	VideoEncoder string
	AudioEncoder string

	PreviewInterval float64 // seconds between preview frames
	PreviewWidth    int
	Extraction      thumbnails.Options
}

// DefaultOptions matches the configuration defaults.
var DefaultOptions = Options{
	Preset:          "medium",
	PreviewInterval: 5,
	PreviewWidth:    320,
	Extraction: thumbnails.Options{
		StallTimeout: thumbnails.DefaultStallTimeout,
		PollInterval: thumbnails.DefaultPollInterval,
	},
}

// Session runs encoder jobs for probing, encoding and previews. The runner
// guarantees that starting one terminates the previous.
type Session struct {
	runner *encoder.Runner
	bus    *events.Bus
	logger *slog.Logger
	opts   Options
}

// NewSession creates a session on runner. bus may be nil.
func NewSession(runner *encoder.Runner, bus *events.Bus, opts Options, logger *slog.Logger) *Session {
	if opts.PreviewInterval <= 0 {
		opts.PreviewInterval = DefaultOptions.PreviewInterval
	}
	return &Session{runner: runner, bus: bus, logger: logger, opts: opts}
}

// Workspace returns the encoder's file namespace.
func (s *Session) Workspace() encoder.Workspace {
	return s.runner.Workspace()
}

// Probe describes input, which must already be in the workspace. The probe
// run itself fails because it names no output; only a missing container or
// video record is treated as failure.
func (s *Session) Probe(ctx context.Context, input string) (media.Format, error) {
	var (
		mu    sync.Mutex
		acc   ffmpeg.PartialFormat
		diags []string
	)
	err := s.runner.Run(ctx, ffmpeg.ProbeArgs(input), func(line string) {
		mu.Lock()
		defer mu.Unlock()
		ffmpeg.ParseLine(line, &acc)
		if len(diags) < diagnosticLines {
			diags = append(diags, line)
		}
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return media.Format{}, ctxErr
	}
	if errors.Is(err, encoder.ErrSuperseded) {
		return media.Format{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	if !acc.Complete() {
		metrics.IncProbeFailures()
		perr := &ProbeError{Input: input, Diagnostics: strings.Join(diags, "\n")}
		if acc.Container == nil {
			perr.Missing = append(perr.Missing, "container")
		}
		if acc.Video == nil {
			perr.Missing = append(perr.Missing, "video")
		}
		s.logger.Warn("Probe found no usable source", "input", input, "missing", perr.Missing, "exit", err)
		return media.Format{}, perr
	}

	source := acc.Format()
	e := events.ProbeCompletedEvent{
		Input:      input,
		Duration:   source.Container.Duration,
		Width:      source.Video.Width,
		Height:     source.Video.Height,
		VideoCodec: source.Video.Codec,
		Timestamp:  now(),
	}
	if source.Audio != nil {
		e.AudioCodec = source.Audio.Codec
	}
	s.bus.Publish(e)
	s.logger.Info("Probed source", "input", input, "duration", source.Container.Duration,
		"width", source.Video.Width, "height", source.Video.Height, "codec", source.Video.Codec)
	return source, nil
}

// Encode transcodes input from source to target and returns the output name.
// Progress is published while the job runs.
func (s *Session) Encode(ctx context.Context, source, target media.Format, input string) (string, error) {
	if target.Video.Implausible {
		return "", fmt.Errorf("%w: %s", ErrImplausibleTarget, target.Video.Preset)
	}
	output := ffmpeg.OutputName(input)
	args, err := ffmpeg.BuildTranscodeArgs(source, target, ffmpeg.TranscodeOptions{
		Input:        input,
		Output:       output,
		Preset:       s.opts.Preset,
		VideoEncoder: s.opts.VideoEncoder,
		AudioEncoder: s.opts.AudioEncoder,
	})
	if err != nil {
		return "", err
	}

	var (
		job  *encoder.Job
		mu   sync.Mutex
		last = -1.0
	)
	ready := make(chan struct{})
	// stdout and stderr are read concurrently.
	job = s.runner.Start(ctx, args, func(line string) {
		pct, ok := ffmpeg.ParseProgress(line, target.Container.Duration)
		if !ok {
			return
		}
		<-ready
		mu.Lock()
		defer mu.Unlock()
		if pct-last < 0.5 && pct < 100 {
			return
		}
		last = pct
		metrics.SetEncodeProgress(job.ID, pct)
		s.bus.Publish(events.EncodeProgressEvent{JobID: job.ID, Input: input, Percent: pct, Timestamp: now()})
	})
	close(ready)

	logger := s.logger.With("job_id", job.ID)
	logger.Info("Encode started", "input", input, "output", output, "preset", target.Video.Preset)
	s.bus.Publish(events.EncodeStartedEvent{JobID: job.ID, Input: input, Output: output, Args: args, Timestamp: now()})

	err = job.Wait(context.WithoutCancel(ctx))
	metrics.FinishEncode(job.ID, result(err), time.Since(job.Started).Seconds())

	finished := events.EncodeFinishedEvent{JobID: job.ID, Input: input, Output: output, Timestamp: now()}
	if err != nil {
		finished.Error = err.Error()
		logger.Warn("Encode failed", "error", err)
	} else {
		logger.Info("Encode finished", "elapsed", time.Since(job.Started).Round(time.Millisecond))
	}
	s.bus.Publish(finished)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", input, err)
	}
	return output, nil
}

// CheckEncoders asks the encoder which encoders it was built with and
// switches the session to fallbacks for missing ones. The returned notes
// describe each substitution.
func (s *Session) CheckEncoders(ctx context.Context) ([]string, error) {
	var (
		mu    sync.Mutex
		lines []string
	)
	err := s.runner.Run(ctx, encoders.ListArgs(), func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}

	mu.Lock()
	list := encoders.Parse(slices.Values(lines))
	mu.Unlock()
	sel, err := encoders.Resolve(list, s.opts.VideoEncoder, s.opts.AudioEncoder)
	if err != nil {
		return nil, err
	}
	for _, note := range sel.Notes {
		s.logger.Warn("Encoder substituted", "note", note)
	}
	s.opts.VideoEncoder, s.opts.AudioEncoder = sel.Video, sel.Audio
	return sel.Notes, nil
}

// Previews starts a frame job for input and yields its frames as they are
// written. A stalled job ends the sequence with an error wrapping both
// ErrPreviewStopped and thumbnails.ErrStalled. Breaking out of the loop
// terminates the frame job.
func (s *Session) Previews(ctx context.Context, input string, duration float64) iter.Seq2[thumbnails.Frame, error] {
	return func(yield func(thumbnails.Frame, error) bool) {
		interval := s.opts.PreviewInterval
		job := s.runner.Start(ctx, ffmpeg.FrameArgs(input, interval, s.opts.PreviewWidth), nil)
		defer job.Cancel()

		logger := s.logger.With("job_id", job.ID)
		logger.Debug("Preview extraction started", "input", input, "interval", interval)

		ex := thumbnails.NewExtractor(s.runner.Workspace(), s.opts.Extraction, logger).ForRunner(s.runner)
		delivered := 0
		for frame, err := range ex.Frames(ctx, job, duration, interval) {
			if err != nil {
				s.stopped(job, input, delivered, err)
				if errors.Is(err, thumbnails.ErrStalled) {
					err = errors.Join(ErrPreviewStopped, err)
				}
				yield(thumbnails.Frame{}, err)
				return
			}
			delivered++
			metrics.IncPreviewFrames()
			s.bus.Publish(events.PreviewFrameEvent{
				JobID:     job.ID,
				Input:     input,
				Index:     frame.Index,
				Seconds:   frame.Time.Seconds(),
				Image:     base64.StdEncoding.EncodeToString(frame.Data),
				Timestamp: now(),
			})
			if !yield(frame, nil) {
				return
			}
		}

		// The job may have failed outright, leaving every frame missing.
		if jobErr := job.Err(); jobErr != nil && delivered == 0 {
			s.stopped(job, input, delivered, jobErr)
			yield(thumbnails.Frame{}, errors.Join(ErrPreviewStopped, jobErr))
			return
		}
		logger.Debug("Preview extraction finished", "frames", delivered)
	}
}

func (s *Session) stopped(job *encoder.Job, input string, delivered int, err error) {
	reason := "error"
	switch {
	case errors.Is(err, thumbnails.ErrStalled):
		reason = "stalled"
	case errors.Is(err, thumbnails.ErrStaleJob):
		reason = "stale"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "cancelled"
	}
	metrics.IncPreviewStopped(reason)
	s.logger.Warn("Preview generation stopped", "job_id", job.ID, "frames", delivered, "error", err)
	s.bus.Publish(events.PreviewStoppedEvent{
		JobID:     job.ID,
		Input:     input,
		Frames:    delivered,
		Reason:    err.Error(),
		Timestamp: now(),
	})
}

func result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, encoder.ErrSuperseded):
		return metrics.ResultSuperseded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCancelled
	default:
		return metrics.ResultFailed
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
