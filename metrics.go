package nmcp

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/nmcp/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCycle is called after each poll. pending is the number of items
	// listed, err is the listing error.
	RecordCycle(pending int, duration time.Duration, err error)

	// RecordItem is called once per processed item. stage is empty for
	// generated items.
	RecordItem(outcome model.State, stage string, duration time.Duration)

	// RecordBranch is called after a branch has been accumulated.
	RecordBranch(b model.Branch, pages, points int)

	// RecordCommit is called after each dataset commit.
	RecordCommit(dataset string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCycle(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordItem(model.State, string, time.Duration) {}
func (NoopMetricsCollector) RecordBranch(model.Branch, int, int)           {}
func (NoopMetricsCollector) RecordCommit(string, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Cycles           atomic.Int64
	CycleErrors      atomic.Int64
	ItemsGenerated   atomic.Int64
	ItemsFailed      atomic.Int64
	Pages            atomic.Int64
	Points           atomic.Int64
	Commits          atomic.Int64
	CommitErrors     atomic.Int64
	CommitTotalNanos atomic.Int64
}

// RecordCycle implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCycle(_ int, _ time.Duration, err error) {
	b.Cycles.Add(1)
	if err != nil {
		b.CycleErrors.Add(1)
	}
}

// RecordItem implements MetricsCollector.
func (b *BasicMetricsCollector) RecordItem(outcome model.State, _ string, _ time.Duration) {
	if outcome == model.StateGenerated {
		b.ItemsGenerated.Add(1)
	} else {
		b.ItemsFailed.Add(1)
	}
}

// RecordBranch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBranch(_ model.Branch, pages, points int) {
	b.Pages.Add(int64(pages))
	b.Points.Add(int64(points))
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(_ string, duration time.Duration, err error) {
	b.Commits.Add(1)
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		Cycles:         b.Cycles.Load(),
		CycleErrors:    b.CycleErrors.Load(),
		ItemsGenerated: b.ItemsGenerated.Load(),
		ItemsFailed:    b.ItemsFailed.Load(),
		Pages:          b.Pages.Load(),
		Points:         b.Points.Load(),
		Commits:        b.Commits.Load(),
		CommitErrors:   b.CommitErrors.Load(),
	}
	if stats.Commits > 0 {
		stats.CommitAvgNanos = b.CommitTotalNanos.Load() / stats.Commits
	}
	return stats
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Cycles         int64
	CycleErrors    int64
	ItemsGenerated int64
	ItemsFailed    int64
	Pages          int64
	Points         int64
	Commits        int64
	CommitErrors   int64
	CommitAvgNanos int64
}
