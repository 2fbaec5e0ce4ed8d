package branch

import (
	"context"

	"github.com/hupe1980/nmcp/model"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of points requested per page.
const DefaultChunkSize = 25000

// Page is one response of a paginated branch fetch.
type Page struct {
	Points []model.Point
	// HasMore is the source's own end-of-stream indication.
	HasMore bool
}

// Fetcher fetches one page of a branch.
type Fetcher interface {
	FetchPage(ctx context.Context, reconstructionID string, b model.Branch, offset, limit int) (Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, reconstructionID string, b model.Branch, offset, limit int) (Page, error)

// FetchPage implements Fetcher.
func (f FetcherFunc) FetchPage(ctx context.Context, reconstructionID string, b model.Branch, offset, limit int) (Page, error) {
	return f(ctx, reconstructionID, b, offset, limit)
}

type options struct {
	chunkSize int
	limit     int
	parallel  bool
	observer  func(b model.Branch, pages, points int)
}

// Option configures an Accumulator.
type Option func(*options)

// WithChunkSize sets the number of points requested per page.
// Values <= 0 select DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		o.chunkSize = n
	}
}

// WithLimit caps the total number of points accumulated per branch.
// Each request is clamped to the remaining budget. 0 means no cap.
func WithLimit(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.limit = n
	}
}

// WithParallelBranches makes AccumulateAll fetch the axon and the dendrite
// concurrently. Pages within one branch are always fetched in order.
func WithParallelBranches(enabled bool) Option {
	return func(o *options) {
		o.parallel = enabled
	}
}

// WithObserver registers a callback invoked after each branch completes.
// With parallel branches it may be called concurrently.
func WithObserver(fn func(b model.Branch, pages, points int)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// Accumulator reassembles branches from a Fetcher.
type Accumulator struct {
	fetcher Fetcher
	opts    options
}

// NewAccumulator creates an Accumulator over f.
func NewAccumulator(f Fetcher, optFns ...Option) *Accumulator {
	opts := options{chunkSize: DefaultChunkSize}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Accumulator{fetcher: f, opts: opts}
}

// ChunkSize returns the configured page size.
func (a *Accumulator) ChunkSize() int { return a.opts.chunkSize }

// Accumulate fetches every page of one branch starting at offset 0.
//
// On error the partial buffer is discarded and a *FetchError is returned.
func (a *Accumulator) Accumulate(ctx context.Context, reconstructionID string, b model.Branch) (*Buffer, error) {
	buf := NewBuffer(b)
	offset := 0

	for {
		request := a.opts.chunkSize
		if a.opts.limit > 0 {
			remaining := a.opts.limit - buf.Len()
			if remaining <= 0 {
				break
			}
			request = min(request, remaining)
		}

		if err := ctx.Err(); err != nil {
			return nil, &FetchError{ReconstructionID: reconstructionID, Branch: b, Offset: offset, Err: err}
		}

		page, err := a.fetcher.FetchPage(ctx, reconstructionID, b, offset, request)
		if err != nil {
			return nil, &FetchError{ReconstructionID: reconstructionID, Branch: b, Offset: offset, Err: err}
		}

		n := len(page.Points)
		buf.Append(page.Points...)
		offset += n

		// A short page ends the stream regardless of HasMore.
		if n == 0 || !page.HasMore || n < request {
			break
		}
	}

	if a.opts.observer != nil {
		a.opts.observer(b, buf.Pages, buf.Len())
	}

	return buf, nil
}

// AccumulateAll fetches both branches of a reconstruction.
func (a *Accumulator) AccumulateAll(ctx context.Context, reconstructionID string) (Set, error) {
	var set Set

	if !a.opts.parallel {
		axon, err := a.Accumulate(ctx, reconstructionID, model.Axon)
		if err != nil {
			return Set{}, err
		}
		dendrite, err := a.Accumulate(ctx, reconstructionID, model.Dendrite)
		if err != nil {
			return Set{}, err
		}
		return Set{Axon: axon, Dendrite: dendrite}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buf, err := a.Accumulate(gctx, reconstructionID, model.Axon)
		set.Axon = buf
		return err
	})
	g.Go(func() error {
		buf, err := a.Accumulate(gctx, reconstructionID, model.Dendrite)
		set.Dendrite = buf
		return err
	})
	if err := g.Wait(); err != nil {
		return Set{}, err
	}

	return set, nil
}
