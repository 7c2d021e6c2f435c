package giscore

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/giscore/bucket"
)

// Logger wraps slog.Logger with giscore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr at INFO.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
	return NewLogger(slog.DiscardHandler)
}

// WithSession adds the spill session id to the logger.
func (l *Logger) WithSession(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("session", id),
	}
}

// WithKey adds the fields of a bucket key to the logger.
func (l *Logger) WithKey(key bucket.Key) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"schema", key.Schema,
			"schema_seq", key.SchemaSeq,
			"geometry", key.Geometry,
			"record", key.Record,
		),
	}
}

// LogSpill logs a sealed backing file.
func (l *Logger) LogSpill(ctx context.Context, size int64) {
	l.DebugContext(ctx, "spill file completed",
		"size", humanize.Bytes(uint64(max(size, 0))),
	)
}

// LogMerge logs a sort-merge pass.
func (l *Logger) LogMerge(ctx context.Context, tuples int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"tuples", tuples,
			"duration", duration,
		)
	}
}

// LogCleanup logs the teardown of the components handed out by an Engine.
func (l *Logger) LogCleanup(ctx context.Context, components int, err error) {
	if err != nil {
		l.WarnContext(ctx, "cleanup completed with failures",
			"components", components,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cleanup completed",
			"components", components,
		)
	}
}
