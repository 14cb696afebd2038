// Package cmd holds the vidshrink subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/smazurov/vidshrink/internal/config"
	"github.com/smazurov/vidshrink/internal/encoder"
	"github.com/smazurov/vidshrink/internal/events"
	"github.com/smazurov/vidshrink/internal/logging"
	"github.com/smazurov/vidshrink/internal/transcode"
)

// workspace is a session with one source staged into its directory.
type workspace struct {
	session *transcode.Session
	local   *encoder.Local
	input   string
	cleanup func()
}

// openWorkspace stages source into the configured work directory, or a
// temporary one that cleanup removes.
func openWorkspace(opts *config.Options, bus *events.Bus, source string) (*workspace, error) {
	sessionOpts, err := opts.SessionOptions()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(source); err != nil {
		return nil, err
	}

	dir := opts.FfmpegWorkdir
	cleanup := func() {}
	if dir == "" {
		if dir, err = os.MkdirTemp("", "vidshrink-"); err != nil {
			return nil, err
		}
		cleanup = func() { os.RemoveAll(dir) }
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("encoder")
	local := encoder.NewLocal(dir, opts.FfmpegBinary, logger, logging.GetLogger("ffmpeg"))
	input := filepath.Base(source)
	if err := local.Link(source, input); err != nil {
		cleanup()
		return nil, err
	}

	runner := encoder.NewRunner(local, logger)
	return &workspace{
		session: transcode.NewSession(runner, bus, sessionOpts, logging.GetLogger("transcode")),
		local:   local,
		input:   input,
		cleanup: func() {
			local.Unlink(input)
			cleanup()
		},
	}, nil
}

// exportFile moves a workspace file to dst, copying when a rename is not
// possible across filesystems.
func (w *workspace) exportFile(name, dst string) error {
	src := w.local.Path(name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// signalContext is cancelled on SIGINT or SIGTERM so the running encoder job
// is interrupted.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// fatal logs err and exits.
func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

// shellJoin renders args so they can be pasted into a POSIX shell.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`*?[]()<>|&;#~%") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
			continue
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
