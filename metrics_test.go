package nmcp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/nmcp/model"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}

	mc.RecordCycle(2, time.Millisecond, nil)
	mc.RecordCycle(0, time.Millisecond, errors.New("down"))
	mc.RecordItem(model.StateGenerated, "", time.Millisecond)
	mc.RecordItem(model.StateFailed, StageFetch.String(), time.Millisecond)
	mc.RecordBranch(model.Axon, 2, 30)
	mc.RecordBranch(model.Dendrite, 1, 5)
	mc.RecordCommit("full", 10*time.Millisecond, nil)
	mc.RecordCommit("axon", 20*time.Millisecond, errors.New("denied"))

	assert.Equal(t, BasicMetricsStats{
		Cycles:         2,
		CycleErrors:    1,
		ItemsGenerated: 1,
		ItemsFailed:    1,
		Pages:          3,
		Points:         35,
		Commits:        2,
		CommitErrors:   1,
		CommitAvgNanos: (15 * time.Millisecond).Nanoseconds(),
	}, mc.GetStats())
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	item := model.PendingItem{ID: "p1", SkeletonID: 15, ReconstructionID: "r1"}

	logger.LogItem(ctx, item, model.StateFailed, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "skeleton_id=15")
	assert.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	logger.LogCycle(ctx, 3, 2, 1, nil)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "failed=1")

	buf.Reset()
	logger.LogIdle(ctx, 360)
	assert.Contains(t, buf.String(), `msg="there are no pending precomputed entries" polls=360`)

	buf.Reset()
	NoopLogger().LogCycle(ctx, 0, 0, 0, errors.New("ignored"))
	assert.Empty(t, buf.String())
}
