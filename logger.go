package crisprs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with crisprs-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// ParseLevel converts debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// WithIndex adds the index location to the logger.
func (l *Logger) WithIndex(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", location),
	}
}

// WithQuery adds a query id field to the logger.
func (l *Logger) WithQuery(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("query_id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, output string, records uint64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"output", output,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index built",
			"output", output,
			"records", records,
			"duration", d,
		)
	}
}

// LogLoad logs an index load.
func (l *Logger) LogLoad(ctx context.Context, location string, records int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index load failed",
			"index", location,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index loaded",
			"index", location,
			"records", records,
			"duration", d,
		)
	}
}

// LogSearch logs one answered query.
func (l *Logger) LogSearch(ctx context.Context, queryID uint64, matches int, err error) {
	if err != nil {
		l.WarnContext(ctx, "query failed",
			"query_id", queryID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"query_id", queryID,
			"matches", matches,
		)
	}
}
