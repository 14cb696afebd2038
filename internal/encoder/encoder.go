package encoder

import (
	"context"
	"errors"
	"io/fs"
)

// Errors reported by workspaces and jobs.
var (
	ErrNotExist   = fs.ErrNotExist
	ErrSuperseded = errors.New("job superseded by a newer job")
)

// Workspace is the encoder's file namespace.
type Workspace interface {
	WriteFile(name string, data []byte) error
	// ReadFile fails with an error wrapping ErrNotExist if name is absent.
	ReadFile(name string) ([]byte, error)
	Unlink(name string) error
}

// LineFunc receives each progress or diagnostic line emitted during a run.
type LineFunc func(line string)

// Backend executes the encoder against its workspace.
type Backend interface {
	Workspace
	// Exec runs the encoder with args and blocks until it finishes or ctx is
	// cancelled.
	Exec(ctx context.Context, args []string, onLine LineFunc) error
}

// Notifier is implemented by workspaces that can report newly written files.
// The channel is closed when ctx is done.
type Notifier interface {
	Watch(ctx context.Context) (<-chan string, error)
}
