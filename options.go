package nmcp

import (
	"log/slog"
	"time"

	"github.com/hupe1980/nmcp/branch"
)

const (
	// DefaultPollInterval is the delay between two poll cycles.
	DefaultPollInterval = 10 * time.Second
	// DefaultHeartbeatInterval is the idle time between two heartbeats.
	DefaultHeartbeatInterval = time.Hour
)

type options struct {
	pollInterval      time.Duration
	heartbeatInterval time.Duration
	heartbeatPolls    int
	validate          bool
	branchOptions     []branch.Option
	metricsCollector  MetricsCollector
	logger            *Logger
}

// Option configures a Worker.
type Option func(*options)

// WithPollInterval sets the delay between poll cycles.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithHeartbeatInterval sets the idle time after which a heartbeat is logged.
// The heartbeat fires after HeartbeatInterval / PollInterval empty polls.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = d
	}
}

// WithHeartbeatPolls sets the number of empty polls between heartbeats,
// overriding WithHeartbeatInterval.
func WithHeartbeatPolls(n int) Option {
	return func(o *options) {
		o.heartbeatPolls = n
	}
}

// WithValidation enables the tree check of assembled skeletons. Default: on.
//
// The check adds a failure class to the build stage: a reconstruction whose
// sample and parent numbers do not form one connected tree, for example
// because numbers are not contiguous, fails with skeleton.ErrInvalidGraph
// instead of being persisted as is. Disable it to persist such skeletons
// unchecked.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithBranchOptions configures the branch accumulator, e.g.
// branch.WithChunkSize or branch.WithParallelBranches.
func WithBranchOptions(opts ...branch.Option) Option {
	return func(o *options) {
		o.branchOptions = append(o.branchOptions, opts...)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := nmcp.NewJSONLogger(slog.LevelInfo)
//	w, _ := nmcp.New(work, source, targets, nmcp.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func (o *options) heartbeatLimit() int {
	if o.heartbeatPolls > 0 {
		return o.heartbeatPolls
	}
	return max(1, int(o.heartbeatInterval/o.pollInterval))
}
