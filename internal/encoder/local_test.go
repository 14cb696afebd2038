package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/vidshrink/internal/process"
)

func TestLocalWorkspace(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "", testLogger(), nil)

	if err := l.WriteFile("clip.mov", []byte("data")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mov")); err != nil {
		t.Errorf("file not written to the directory: %v", err)
	}
	if got, err := l.ReadFile("clip.mov"); err != nil || string(got) != "data" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	if err := l.Unlink("clip.mov"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ReadFile("clip.mov"); !errors.Is(err, ErrNotExist) {
		t.Errorf("ReadFile after Unlink = %v, want ErrNotExist", err)
	}
}

func TestLocalPathStaysInsideDirectory(t *testing.T) {
	l := NewLocal("/work", "", testLogger(), nil)

	tests := map[string]string{
		"frame_1.jpg":        "/work/frame_1.jpg",
		"output clip.mov":    "/work/output clip.mov",
		"../../etc/passwd":   "/work/etc/passwd",
		"/abs/name":          "/work/abs/name",
		"sub/../frame_2.jpg": "/work/frame_2.jpg",
	}
	for name, want := range tests {
		if got := l.Path(name); got != want {
			t.Errorf("Path(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLocalLink(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.mov")
	if err := os.WriteFile(src, []byte("movie"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLocal(t.TempDir(), "", testLogger(), nil)

	if err := l.Link(src, "source.mov"); err != nil {
		t.Fatal(err)
	}
	if got, err := l.ReadFile("source.mov"); err != nil || string(got) != "movie" {
		t.Errorf("linked file = %q, %v", got, err)
	}
}

func TestLocalExec(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "sh", testLogger(), nil)

	var mu sync.Mutex
	var lines []string
	err := l.Exec(context.Background(), []string{"-c", `printf x > "out put.txt"; echo progress >&2`}, func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, err := l.ReadFile("out put.txt"); err != nil || string(got) != "x" {
		t.Errorf("output = %q, %v", got, err)
	}
	if strings.Join(lines, "|") != "progress" {
		t.Errorf("lines = %q", lines)
	}

	var exitErr *process.ExitError
	if err := l.Exec(context.Background(), []string{"-c", "exit 1"}, nil); !errors.As(err, &exitErr) {
		t.Errorf("failing run err = %v, want *process.ExitError", err)
	}
}

func TestLocalWatch(t *testing.T) {
	l := NewLocal(t.TempDir(), "", testLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := l.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.WriteFile("frame_1.jpg", []byte{1}); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case name := <-ch:
			if name == "frame_1.jpg" {
				return
			}
		case <-timeout:
			t.Fatal("no notification for frame_1.jpg")
		}
	}
}
