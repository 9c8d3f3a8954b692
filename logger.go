package matio

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with codec-specific helpers and consistent
// field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogSave logs a save of count matrices totalling bytes.
func (l *Logger) LogSave(ctx context.Context, path string, count int, bytes int64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"path", path,
			"count", count,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "save completed",
		"path", path,
		"count", count,
		"bytes", bytes,
		"elapsed", elapsed,
	)
}

// LogLoad logs a load of count matrices.
func (l *Logger) LogLoad(ctx context.Context, path string, count int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "load completed",
		"path", path,
		"count", count,
		"elapsed", elapsed,
	)
}

// LogConcat logs the outcome of a path-list concatenation.
func (l *Logger) LogConcat(ctx context.Context, path string, sources int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "concat failed",
			"path", path,
			"sources", sources,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "concat completed",
		"path", path,
		"sources", sources,
	)
}
