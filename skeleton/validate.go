package skeleton

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInvalidGraph is wrapped by every Validate failure.
var ErrInvalidGraph = errors.New("skeleton: invalid graph")

// Validate checks that g is a single tree: one edge less than vertices, all
// edge endpoints in range, no self or duplicate edges, one connected component.
func (g *Graph) Validate() error {
	n := g.NumVertices()
	if n == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidGraph)
	}
	if len(g.Edges) != n-1 {
		return fmt.Errorf("%w: %d edges for %d vertices", ErrInvalidGraph, len(g.Edges), n)
	}

	ug := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		ug.AddNode(simple.Node(i))
	}

	for i, e := range g.Edges {
		if e.Child < 0 || e.Child >= n || e.Parent < 0 || e.Parent >= n {
			return fmt.Errorf("%w: edge %d (%d->%d) out of range", ErrInvalidGraph, i, e.Child, e.Parent)
		}
		if e.Child == e.Parent {
			return fmt.Errorf("%w: edge %d is a self edge on %d", ErrInvalidGraph, i, e.Child)
		}
		if ug.HasEdgeBetween(int64(e.Child), int64(e.Parent)) {
			return fmt.Errorf("%w: duplicate edge %d (%d->%d)", ErrInvalidGraph, i, e.Child, e.Parent)
		}
		ug.SetEdge(simple.Edge{F: simple.Node(e.Child), T: simple.Node(e.Parent)})
	}

	if cc := topo.ConnectedComponents(ug); len(cc) != 1 {
		return fmt.Errorf("%w: %d connected components", ErrInvalidGraph, len(cc))
	}

	return nil
}
