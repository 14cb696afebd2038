package encoder

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ExecFunc emulates an encoder run against a workspace.
type ExecFunc func(ctx context.Context, ws Workspace, args []string, onLine LineFunc) error

// Memory is an in-memory workspace whose runs are delegated to an ExecFunc.
type Memory struct {
	exec ExecFunc

	mu       sync.RWMutex
	files    map[string][]byte
	watchers map[chan string]struct{}
}

// NewMemory creates an empty in-memory backend.
func NewMemory(exec ExecFunc) *Memory {
	return &Memory{
		exec:     exec,
		files:    make(map[string][]byte),
		watchers: make(map[chan string]struct{}),
	}
}

// WriteFile stores a copy of data under name.
func (m *Memory) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	m.files[name] = append([]byte(nil), data...)
	watchers := make([]chan string, 0, len(m.watchers))
	for ch := range m.watchers {
		watchers = append(watchers, ch)
	}
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- name:
		default:
		}
	}
	return nil
}

// ReadFile returns a copy of the named file.
func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Unlink removes the named file.
func (m *Memory) Unlink(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("unlink %q: %w", name, ErrNotExist)
	}
	delete(m.files, name)
	return nil
}

// Names lists the files currently stored, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exec runs the configured ExecFunc.
func (m *Memory) Exec(ctx context.Context, args []string, onLine LineFunc) error {
	if m.exec == nil {
		return fmt.Errorf("memory backend has no exec function")
	}
	if onLine == nil {
		onLine = func(string) {}
	}
	return m.exec(ctx, m, args, onLine)
}

// Watch reports the names of files as they are written.
func (m *Memory) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() {
			m.mu.Lock()
			delete(m.watchers, ch)
			m.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case name := <-ch:
				select {
				case out <- name:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
