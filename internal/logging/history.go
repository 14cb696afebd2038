package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one retained log record.
type Entry struct {
	Seq        uint64         `json:"seq"`
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// History keeps the most recent log entries in a fixed-size ring.
type History struct {
	mu       sync.RWMutex
	entries  []Entry
	next     int
	full     bool
	seq      uint64
	callback func(Entry)
}

// NewHistory creates a ring holding size entries.
func NewHistory(size int) *History {
	return &History{entries: make([]Entry, max(size, 1))}
}

// Add stores e, assigning its sequence number, and invokes the callback.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	h.seq++
	e.Seq = h.seq
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	cb := h.callback
	h.mu.Unlock()

	if cb != nil {
		cb(e)
	}
}

// Last returns up to n entries, oldest first. n <= 0 returns everything.
func (h *History) Last(n int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := h.next
	if h.full {
		count = len(h.entries)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]Entry, n)
	start := h.next - n
	for i := range out {
		out[i] = h.entries[(start+i+len(h.entries))%len(h.entries)]
	}
	return out
}

// SetCallback installs fn, called outside the lock after every Add.
func (h *History) SetCallback(fn func(Entry)) {
	h.mu.Lock()
	h.callback = fn
	h.mu.Unlock()
}

type historyHandler struct {
	history *History
	level   slog.Leveler
	attrs   []slog.Attr
	groups  []string
}

func newHistoryHandler(h *History, level slog.Leveler) *historyHandler {
	return &historyHandler{history: h, level: level}
}

func (h *historyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *historyHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Time:       r.Time,
		Level:      strings.ToLower(r.Level.String()),
		Module:     "app",
		Message:    r.Message,
		Attributes: make(map[string]any),
	}
	collect := func(a slog.Attr) bool {
		if a.Key == "module" && len(h.groups) == 0 {
			e.Module = a.Value.String()
			return true
		}
		flatten(e.Attributes, h.groups, a)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)
	if len(e.Attributes) == 0 {
		e.Attributes = nil
	}
	h.history.Add(e)
	return nil
}

func (h *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

func (h *historyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

// flatten stores a with a dotted key, expanding groups.
func flatten(dst map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	switch a.Value.Kind() {
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			flatten(dst, append(append([]string(nil), groups...), a.Key), ga)
		}
	case slog.KindDuration:
		dst[key] = a.Value.Duration().String()
	case slog.KindTime:
		dst[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			dst[key] = err.Error()
		} else {
			dst[key] = a.Value.Any()
		}
	default:
		dst[key] = a.Value.Any()
	}
}
