package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/process"
)

// DefaultBinary is the encoder executable looked up on PATH.
const DefaultBinary = "ffmpeg"

// Local is a directory-backed workspace executed by the ffmpeg binary with
// the directory as its working directory.
type Local struct {
	dir       string
	binary    string
	logger    *slog.Logger
	ffmpegLog *slog.Logger
}

// NewLocal creates a backend rooted at dir.
func NewLocal(dir, binary string, logger, ffmpegLog *slog.Logger) *Local {
	if binary == "" {
		binary = DefaultBinary
	}
	if ffmpegLog == nil {
		ffmpegLog = logger
	}
	return &Local{dir: dir, binary: binary, logger: logger, ffmpegLog: ffmpegLog}
}

// Dir returns the workspace directory.
func (l *Local) Dir() string {
	return l.dir
}

// Path maps a workspace name to a path inside the directory.
func (l *Local) Path(name string) string {
	return filepath.Join(l.dir, filepath.Clean("/"+name))
}

// WriteFile writes data to name.
func (l *Local) WriteFile(name string, data []byte) error {
	return os.WriteFile(l.Path(name), data, 0o644)
}

// ReadFile reads name.
func (l *Local) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(l.Path(name))
}

// Unlink removes name.
func (l *Local) Unlink(name string) error {
	return os.Remove(l.Path(name))
}

// Link makes an existing file available in the workspace under name without
// copying it, falling back to a symlink across filesystems.
func (l *Local) Link(src, name string) error {
	dst := l.Path(name)
	if err := os.Link(src, dst); err != nil {
		abs, absErr := filepath.Abs(src)
		if absErr != nil {
			return absErr
		}
		if symErr := os.Symlink(abs, dst); symErr != nil {
			return fmt.Errorf("link %s: %w", src, errors.Join(err, symErr))
		}
	}
	return nil
}

// Exec runs the encoder binary in the workspace directory.
func (l *Local) Exec(ctx context.Context, args []string, onLine LineFunc) error {
	p := process.NewProcess(uuid.NewString(), l.binary, args, l.logger)
	p.SetDir(l.dir)
	p.SetLogParser(l.ffmpegLog, ffmpeg.ParseLogLevel)
	if onLine != nil {
		p.SetOutputHandler(process.OutputHandlerFunc(func(_, line string) {
			onLine(line)
		}))
	}
	return p.Run(ctx)
}

// Watch reports workspace files as they are created or renamed into place.
func (l *Local) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				select {
				case out <- filepath.Base(ev.Name):
				case <-ctx.Done():
					return
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("Workspace watcher error", "dir", l.dir, "error", werr)
			}
		}
	}()
	return out, nil
}
