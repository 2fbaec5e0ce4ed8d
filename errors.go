package nmcp

import (
	"errors"
	"fmt"

	"github.com/hupe1980/nmcp/skeleton"
)

var (
	// ErrEmptyBranch is returned when a branch has no points.
	ErrEmptyBranch = skeleton.ErrEmptyBranch
	// ErrNoSkeletonData is returned when no selected branch has points.
	ErrNoSkeletonData = skeleton.ErrNoSkeletonData
	// ErrNoTargets is returned by New without any target dataset.
	ErrNoTargets = errors.New("nmcp: no target datasets")
)

// Stage is the step of the item pipeline that failed.
type Stage uint8

const (
	// StageHeader reads the reconstruction header.
	StageHeader Stage = iota + 1
	// StageFetch accumulates the branches.
	StageFetch
	// StageBuild assembles the skeletons.
	StageBuild
	// StagePersist commits skeletons and properties.
	StagePersist
)

func (s Stage) String() string {
	switch s {
	case StageHeader:
		return "header"
	case StageFetch:
		return "fetch"
	case StageBuild:
		return "build"
	case StagePersist:
		return "persist"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ItemError is the terminal failure of one work item.
//
// The underlying error can be accessed via errors.Unwrap.
type ItemError struct {
	ItemID     string
	SkeletonID uint64
	Stage      Stage
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s (skeleton %d): %s: %v", e.ItemID, e.SkeletonID, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
