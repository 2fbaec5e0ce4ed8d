package nmcp

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nmcp/branch"
	"github.com/hupe1980/nmcp/model"
	"github.com/hupe1980/nmcp/precomputed"
	"github.com/hupe1980/nmcp/skeleton"
)

// WorkSource lists pending work items and receives their outcome.
type WorkSource interface {
	Pending(ctx context.Context) ([]model.PendingItem, error)
	MarkGenerated(ctx context.Context, itemID string) error
	MarkFailed(ctx context.Context, itemID string) error
}

// ReconstructionSource serves reconstruction headers and branch pages.
type ReconstructionSource interface {
	branch.Fetcher
	Header(ctx context.Context, reconstructionID string) (model.Header, error)
}

// Committer persists one skeleton with its segment properties.
// *precomputed.Dataset implements it.
type Committer interface {
	Commit(ctx context.Context, id uint64, g *skeleton.Graph, props precomputed.Properties) error
}

// Target is a dataset that receives one skeleton variant.
type Target struct {
	Variant skeleton.Variant
	Dataset Committer
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Pending   int
	Generated int
	Failed    int
	// Errors holds one entry per failed item.
	Errors []*ItemError
}

// Worker drives pending work items through fetch, build and persist.
type Worker struct {
	work    WorkSource
	source  ReconstructionSource
	targets []Target
	acc     *branch.Accumulator
	opts    options
	idle    int
}

// New creates a worker that takes items from work, reads reconstructions from
// source and writes every item to each target.
func New(work WorkSource, source ReconstructionSource, targets []Target, optFns ...Option) (*Worker, error) {
	if work == nil || source == nil {
		return nil, errors.New("nmcp: work and reconstruction sources are required")
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	opts := options{
		pollInterval:      DefaultPollInterval,
		heartbeatInterval: DefaultHeartbeatInterval,
		validate:          true,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.metricsCollector == nil {
		opts.metricsCollector = NoopMetricsCollector{}
	}
	if opts.logger == nil {
		opts.logger = NoopLogger()
	}

	mc := opts.metricsCollector
	branchOpts := append([]branch.Option{
		branch.WithObserver(func(b model.Branch, pages, points int) {
			mc.RecordBranch(b, pages, points)
		}),
	}, opts.branchOptions...)

	return &Worker{
		work:    work,
		source:  source,
		targets: targets,
		acc:     branch.NewAccumulator(source, branchOpts...),
		opts:    opts,
	}, nil
}

// Run bootstraps the target datasets and polls until ctx is cancelled.
// Cycles never overlap: the next poll is scheduled after the previous cycle
// has finished.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.EnsureInfo(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		res, err := w.RunCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			w.heartbeat(ctx, res.Pending)
		}

		timer.Reset(w.opts.pollInterval)
	}
}

// EnsureInfo writes the info files of every target dataset that supports it.
func (w *Worker) EnsureInfo(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range w.targets {
		ds, ok := t.Dataset.(interface{ EnsureInfo(context.Context) error })
		if !ok {
			continue
		}
		g.Go(func() error {
			return ds.EnsureInfo(gctx)
		})
	}
	return g.Wait()
}

func (w *Worker) heartbeat(ctx context.Context, pending int) {
	if pending > 0 {
		w.idle = 0
		return
	}
	w.idle++
	if limit := w.opts.heartbeatLimit(); w.idle >= limit {
		w.opts.logger.LogIdle(ctx, w.idle)
		w.idle = 0
	}
}

// RunCycle lists the pending items and processes them one after another. The
// returned error is only set when the items could not be listed. Failing
// items are reported through the work source and collected in the result.
func (w *Worker) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	items, err := w.work.Pending(ctx)
	w.opts.metricsCollector.RecordCycle(len(items), time.Since(start), err)
	if err != nil {
		w.opts.logger.LogCycle(ctx, 0, 0, 0, err)
		return CycleResult{}, err
	}

	res := CycleResult{Pending: len(items)}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		itemStart := time.Now()
		ierr := w.ProcessItem(ctx, item)

		outcome, stage := model.StateGenerated, ""
		if ierr != nil {
			outcome, stage = model.StateFailed, ierr.Stage.String()
			res.Failed++
			res.Errors = append(res.Errors, ierr)
		} else {
			res.Generated++
		}

		w.opts.metricsCollector.RecordItem(outcome, stage, time.Since(itemStart))
		w.opts.logger.LogItem(ctx, item, outcome, errOrNil(ierr))
		w.report(ctx, item, outcome)
	}

	w.opts.logger.LogCycle(ctx, res.Pending, res.Generated, res.Failed, nil)
	return res, nil
}

func (w *Worker) report(ctx context.Context, item model.PendingItem, outcome model.State) {
	var err error
	if outcome == model.StateGenerated {
		err = w.work.MarkGenerated(ctx, item.ID)
	} else {
		err = w.work.MarkFailed(ctx, item.ID)
	}
	if err != nil {
		w.opts.logger.WithItem(item).ErrorContext(ctx, "could not report item state",
			"state", outcome.String(),
			"error", err,
		)
	}
}

type build struct {
	target Target
	graph  *skeleton.Graph
}

// ProcessItem runs the pipeline for one item and returns its terminal error,
// or nil when every target with data has been committed. A variant whose
// branches are absent is skipped.
func (w *Worker) ProcessItem(ctx context.Context, item model.PendingItem) *ItemError {
	fail := func(stage Stage, err error) *ItemError {
		return &ItemError{ItemID: item.ID, SkeletonID: item.SkeletonID, Stage: stage, Err: err}
	}

	header, err := w.source.Header(ctx, item.ReconstructionID)
	if err != nil {
		return fail(StageHeader, err)
	}

	set, err := w.acc.AccumulateAll(ctx, item.ReconstructionID)
	if err != nil {
		return fail(StageFetch, err)
	}

	builds := make([]build, 0, len(w.targets))
	for _, t := range w.targets {
		g, err := skeleton.Assemble(set, t.Variant)
		if errors.Is(err, skeleton.ErrNoSkeletonData) {
			continue
		}
		if err != nil {
			return fail(StageBuild, err)
		}
		if w.opts.validate {
			if err := g.Validate(); err != nil {
				return fail(StageBuild, err)
			}
		}
		builds = append(builds, build{target: t, graph: g})
	}
	if len(builds) == 0 {
		return fail(StageBuild, skeleton.ErrNoSkeletonData)
	}

	props := precomputed.Properties{
		Label:    header.Label,
		Strain:   header.NormalizedStrain(),
		RegionID: header.SomaRegionID,
	}

	for _, b := range builds {
		name := b.target.Variant.String()
		start := time.Now()
		err := b.target.Dataset.Commit(ctx, item.SkeletonID, b.graph, props)
		w.opts.metricsCollector.RecordCommit(name, time.Since(start), err)
		w.opts.logger.LogCommit(ctx, name, item.SkeletonID, err)
		if err != nil {
			return fail(StagePersist, err)
		}
	}

	return nil
}

// errOrNil avoids a typed nil in the error interface.
func errOrNil(err *ItemError) error {
	if err == nil {
		return nil
	}
	return err
}
