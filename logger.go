package nmcp

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/nmcp/model"
)

// Logger wraps slog.Logger with worker-specific helpers.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithItem adds the fields of a pending item to the logger.
func (l *Logger) WithItem(item model.PendingItem) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"item", item.ID,
			"skeleton_id", item.SkeletonID,
			"reconstruction", item.ReconstructionID,
		),
	}
}

// LogCycle logs the outcome of one poll cycle.
func (l *Logger) LogCycle(ctx context.Context, pending, generated, failed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "poll failed", "error", err)
	case failed > 0:
		l.WarnContext(ctx, "cycle completed with failures",
			"pending", pending,
			"generated", generated,
			"failed", failed,
		)
	case pending > 0:
		l.InfoContext(ctx, "cycle completed",
			"pending", pending,
			"generated", generated,
		)
	default:
		l.DebugContext(ctx, "no pending items")
	}
}

// LogItem logs the terminal state of one item.
func (l *Logger) LogItem(ctx context.Context, item model.PendingItem, outcome model.State, err error) {
	attrs := []any{
		"item", item.ID,
		"skeleton_id", item.SkeletonID,
		"reconstruction", item.ReconstructionID,
		"state", outcome.String(),
	}
	if err != nil {
		l.ErrorContext(ctx, "item failed", append(attrs, "error", err)...)
		return
	}
	l.InfoContext(ctx, "item generated", attrs...)
}

// LogIdle logs the heartbeat emitted after polls consecutive empty polls.
func (l *Logger) LogIdle(ctx context.Context, polls int) {
	l.InfoContext(ctx, "there are no pending precomputed entries", "polls", polls)
}

// LogCommit logs one dataset commit.
func (l *Logger) LogCommit(ctx context.Context, dataset string, skeletonID uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "commit failed",
			"dataset", dataset,
			"skeleton_id", skeletonID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "commit completed",
			"dataset", dataset,
			"skeleton_id", skeletonID,
		)
	}
}
