package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 500

var (
	mu           sync.RWMutex
	cfg          Config
	initialized  bool
	loggers      = make(map[string]*slog.Logger)
	levels       = make(map[string]*slog.LevelVar)
	defaultLevel = &slog.LevelVar{}
	history      = NewHistory(historySize)
)

// Config holds the [logging] section.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize applies cfg to the default logger and every module logger
// created so far.
func Initialize(c Config) {
	mu.Lock()
	defer mu.Unlock()

	cfg = c
	initialized = true
	defaultLevel.Set(levelOr(c.Level, slog.LevelInfo))

	for module, lv := range levels {
		lv.Set(moduleLevel(module))
		loggers[module] = slog.New(newHandler(c.Format, lv)).With("module", module)
	}
	slog.SetDefault(slog.New(newHandler(c.Format, defaultLevel)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	logger, ok := loggers[module]
	mu.RUnlock()
	if ok {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := loggers[module]; ok {
		return logger
	}

	lv := &slog.LevelVar{}
	lv.Set(moduleLevel(module))
	format := "text"
	if initialized {
		format = cfg.Format
	}
	logger = slog.New(newHandler(format, lv)).With("module", module)
	loggers[module] = logger
	levels[module] = lv
	return logger
}

// SetLevel changes the level of a module logger at runtime.
func SetLevel(module, level string) bool {
	parsed, ok := parseLevel(level)
	if !ok {
		return false
	}
	GetLogger(module)
	mu.RLock()
	levels[module].Set(parsed)
	mu.RUnlock()
	return true
}

// Recent returns up to n of the newest retained log entries, oldest first.
func Recent(n int) []Entry {
	return history.Last(n)
}

// OnEntry registers fn to receive every log entry that passes its module's
// level. Passing nil removes the callback.
func OnEntry(fn func(Entry)) {
	history.SetCallback(fn)
}

// moduleLevel must be called with mu held.
func moduleLevel(module string) slog.Level {
	if !initialized {
		return slog.LevelInfo
	}
	level := levelOr(cfg.Level, slog.LevelInfo)
	if s, ok := cfg.Modules[module]; ok {
		level = levelOr(s, level)
	}
	return level
}

// newHandler writes to stdout when something is listening on it, to the
// journal when running under systemd, and always to the history.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	handlers := []slog.Handler{newHistoryHandler(history, level)}
	if stdoutAttached() {
		handlers = append(handlers, stdout)
	}
	if JournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	return fanout(handlers)
}

func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	m := fi.Mode()
	return m&os.ModeCharDevice != 0 || m&os.ModeNamedPipe != 0 || m&os.ModeSocket != 0 || m.IsRegular()
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if l, ok := parseLevel(s); ok {
		return l
	}
	return fallback
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
