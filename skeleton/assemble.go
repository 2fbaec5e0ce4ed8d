package skeleton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/nmcp/branch"
)

// Variant selects which branches make up a skeleton.
type Variant uint8

const (
	// Full merges the axon and the dendrite.
	Full Variant = iota
	// AxonOnly uses the axon alone.
	AxonOnly
	// DendriteOnly uses the dendrite alone.
	DendriteOnly
)

// Variants lists every variant in dataset order.
var Variants = []Variant{Full, AxonOnly, DendriteOnly}

// String returns the dataset name of the variant.
func (v Variant) String() string {
	switch v {
	case Full:
		return "full"
	case AxonOnly:
		return "axon"
	case DendriteOnly:
		return "dendrite"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// ParseVariant parses a dataset name ("full", "axon", "dendrite").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "all":
		return Full, nil
	case "axon":
		return AxonOnly, nil
	case "dendrite":
		return DendriteOnly, nil
	default:
		return 0, fmt.Errorf("unknown skeleton variant %q", s)
	}
}

// Assemble builds the skeleton of the given variant. The axon always donates
// the soma. It fails with ErrNoSkeletonData when every selected branch is
// empty.
func Assemble(set branch.Set, v Variant) (*Graph, error) {
	var axon, dendrite *Graph
	var err error

	if v == Full || v == AxonOnly {
		if axon, err = buildOptional(set.Axon); err != nil {
			return nil, err
		}
	}
	if v == Full || v == DendriteOnly {
		if dendrite, err = buildOptional(set.Dendrite); err != nil {
			return nil, err
		}
	}

	g := Merge(axon, dendrite)
	if g == nil {
		return nil, ErrNoSkeletonData
	}
	return g, nil
}

func buildOptional(buf *branch.Buffer) (*Graph, error) {
	if buf.Empty() {
		return nil, nil
	}
	g, err := Build(buf.Points)
	if errors.Is(err, ErrEmptyBranch) {
		return nil, nil
	}
	return g, err
}
