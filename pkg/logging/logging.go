package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// envLogLevel is consulted when no explicit level is given.
const envLogLevel = "LOG_LEVEL"

// ParseLevel converts a level name to a slog.Level. Empty input falls
// back to the LOG_LEVEL environment variable, then to INFO.
func ParseLevel(level string) (slog.Level, error) {
	if level == "" {
		level = os.Getenv(envLogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// fanoutHandler forwards every record to all wrapped handlers. A failed
// sink does not block the others; the first error is returned.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, rec.Level) {
			continue
		}
		if err := hh.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// NewDualLogger returns a logger that writes human-readable text to
// stderr and structured JSON to the given file, both at the same level.
// Every record carries module, version, and a per-run id.
func NewDualLogger(module, version string, level slog.Level, jsonSink *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	if jsonSink != nil {
		handlers = append(handlers, slog.NewJSONHandler(jsonSink, opts))
	}

	logger := slog.New(&fanoutHandler{handlers: handlers})
	return logger.With(
		"module", module,
		"version", version,
		"run", uuid.NewString(),
	)
}

// OpenLogFile creates or truncates the JSON log sink. It must be called
// after privilege escalation so the file is owned by the elevated
// process.
func OpenLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// SetDefault installs the dual logger as the process-wide default and
// returns it.
func SetDefault(module, version string, level slog.Level, jsonSink *os.File) *slog.Logger {
	logger := NewDualLogger(module, version, level, jsonSink)
	slog.SetDefault(logger)
	return logger
}
