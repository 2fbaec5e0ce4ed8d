package jsonsource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/nmcp/branch"
	"github.com/hupe1980/nmcp/model"
)

// ErrUnknownReconstruction is returned for ids that were never added.
var ErrUnknownReconstruction = errors.New("jsonsource: unknown reconstruction")

type entry struct {
	item     model.PendingItem
	header   model.Header
	axon     []model.RawPoint
	dendrite []model.RawPoint
	state    model.State
}

// Source is an in-memory work-item and reconstruction source.
// Thread-safe.
type Source struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	skipped []string
}

// New returns an empty source.
func New() *Source {
	return &Source{entries: make(map[string]*entry)}
}

// Load reads the given files and directories into a new source.
func Load(paths ...string) (*Source, error) {
	files, err := Expand(paths...)
	if err != nil {
		return nil, err
	}

	s := New()
	for _, path := range files {
		f, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		for i := range f.Neurons {
			s.AddNeuron(&f.Neurons[i])
		}
	}
	return s, nil
}

// AddNeuron adds n under the skeleton id derived from its idString. Neurons
// without a derivable id are recorded in Skipped and not added.
func (s *Source) AddNeuron(n *Neuron) bool {
	id, ok := SkeletonID(n.IDString)
	if !ok {
		s.mu.Lock()
		s.skipped = append(s.skipped, n.IDString)
		s.mu.Unlock()
		return false
	}
	s.Add(n, id)
	return true
}

// Add adds n as a pending item for skeleton id. A neuron with the same
// idString replaces the earlier one and is pending again.
func (s *Source) Add(n *Neuron, skeletonID uint64) {
	key := n.IDString

	e := &entry{
		item: model.PendingItem{
			ID:               key,
			SkeletonID:       skeletonID,
			ReconstructionID: key,
		},
		header:   n.Header(),
		axon:     n.Axon,
		dendrite: n.Dendrite,
		state:    model.StatePending,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = e
}

// Skipped returns the idStrings of neurons that had no derivable skeleton id.
func (s *Source) Skipped() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.skipped...)
}

// Len returns the number of added reconstructions.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// State returns the state of item id.
func (s *Source) State(id string) (model.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Pending returns the items not yet generated or failed, in insertion order.
func (s *Source) Pending(_ context.Context) ([]model.PendingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.PendingItem
	for _, key := range s.order {
		if e := s.entries[key]; e.state == model.StatePending {
			items = append(items, e.item)
		}
	}
	return items, nil
}

// MarkGenerated marks item id as generated.
func (s *Source) MarkGenerated(_ context.Context, id string) error {
	return s.mark(id, model.StateGenerated)
}

// MarkFailed marks item id as failed.
func (s *Source) MarkFailed(_ context.Context, id string) error {
	return s.mark(id, model.StateFailed)
}

func (s *Source) mark(id string, state model.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReconstruction, id)
	}
	e.state = state
	return nil
}

// Header returns the metadata of a reconstruction.
func (s *Source) Header(_ context.Context, reconstructionID string) (model.Header, error) {
	e, err := s.lookup(reconstructionID)
	if err != nil {
		return model.Header{}, err
	}
	return e.header, nil
}

// FetchPage implements branch.Fetcher over the in-memory samples.
func (s *Source) FetchPage(_ context.Context, reconstructionID string, b model.Branch, offset, limit int) (branch.Page, error) {
	e, err := s.lookup(reconstructionID)
	if err != nil {
		return branch.Page{}, err
	}

	raw := e.axon
	if b == model.Dendrite {
		raw = e.dendrite
	}

	if offset < 0 || offset >= len(raw) || limit <= 0 {
		return branch.Page{}, nil
	}
	end := min(offset+limit, len(raw))

	points, err := model.ConvertPoints(raw[offset:end], offset)
	if err != nil {
		return branch.Page{}, err
	}
	return branch.Page{Points: points, HasMore: end < len(raw)}, nil
}

func (s *Source) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReconstruction, id)
	}
	return e, nil
}

var _ branch.Fetcher = (*Source)(nil)
