package model

import "fmt"

// DefaultStrain is recorded when a reconstruction does not name its mouse line.
const DefaultStrain = "unknown"

// State is the lifecycle state of a PendingItem.
type State uint8

const (
	// StatePending items are waiting to be generated.
	StatePending State = iota
	// StateGenerated items have been persisted.
	StateGenerated
	// StateFailed items could not be fetched, built or persisted.
	StateFailed
)

// String returns the upper-case state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateGenerated:
		return "GENERATED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// PendingItem is an external unit of work: generate skeleton SkeletonID from
// reconstruction ReconstructionID.
type PendingItem struct {
	ID               string
	SkeletonID       uint64
	ReconstructionID string
}

// Header carries the per-reconstruction metadata needed for the property index.
type Header struct {
	ID           string
	Label        string
	Strain       string
	DOI          string
	SomaRegionID int64
}

// NormalizedStrain returns the strain, or DefaultStrain when none is recorded.
func (h Header) NormalizedStrain() string {
	if h.Strain == "" {
		return DefaultStrain
	}
	return h.Strain
}
