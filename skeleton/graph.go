package skeleton

import (
	"errors"

	"github.com/hupe1980/nmcp/model"
)

var (
	// ErrEmptyBranch is returned by Build for a branch without points.
	// Callers treat it as "branch absent".
	ErrEmptyBranch = errors.New("skeleton: empty branch")

	// ErrNoSkeletonData is returned when neither branch has points.
	ErrNoSkeletonData = errors.New("skeleton: no skeleton data")
)

// Vertex is one skeleton vertex with its per-vertex attributes.
type Vertex struct {
	Position    [3]float32
	Radius      float32
	RegionID    int64
	Compartment int32
}

// Edge links a vertex to its parent by 0-based vertex index.
type Edge struct {
	Child  int
	Parent int
}

// Graph is a skeleton: a tree rooted at vertex 0 with len(Vertices)-1 edges.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge
}

// NumVertices returns the vertex count. A nil graph has none.
func (g *Graph) NumVertices() int {
	if g == nil {
		return 0
	}
	return len(g.Vertices)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}

// Build creates the graph of one branch.
//
// Vertex i carries point i. For every non-root point i, edge i-1 is
// (SampleNumber-1, ParentNumber-1): indices come straight from the 1-based
// numbers recorded on the point, not from its position.
func Build(points []model.Point) (*Graph, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyBranch
	}

	g := &Graph{
		Vertices: make([]Vertex, n),
		Edges:    make([]Edge, 0, n-1),
	}

	for i, p := range points {
		g.Vertices[i] = Vertex{
			Position:    [3]float32{float32(p.X), float32(p.Y), float32(p.Z)},
			Radius:      float32(p.Radius),
			RegionID:    p.RegionID,
			Compartment: int32(p.StructureID),
		}
		if i == 0 {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			Child:  p.SampleNumber - 1,
			Parent: p.ParentNumber - 1,
		})
	}

	return g, nil
}

// Merge joins primary and secondary, which share their root vertex.
//
// If either side is nil the other is returned unmodified. Otherwise the
// result holds primary's vertices followed by secondary's vertices without
// its root, primary's edges followed by secondary's edges shifted by
// len(primary.Vertices)-1, with edges that pointed at secondary's root
// redirected to vertex 0. Inputs are not modified.
func Merge(primary, secondary *Graph) *Graph {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}

	base := len(primary.Vertices)
	shift := base - 1
	dup := base - 1

	out := &Graph{
		Vertices: make([]Vertex, 0, base+len(secondary.Vertices)-1),
		Edges:    make([]Edge, 0, len(primary.Edges)+len(secondary.Edges)),
	}

	out.Vertices = append(out.Vertices, primary.Vertices...)
	if len(secondary.Vertices) > 1 {
		out.Vertices = append(out.Vertices, secondary.Vertices[1:]...)
	}

	out.Edges = append(out.Edges, primary.Edges...)
	for _, e := range secondary.Edges {
		adjusted := Edge{Child: e.Child + shift, Parent: e.Parent + shift}
		if adjusted.Parent == dup {
			adjusted.Parent = 0
		}
		out.Edges = append(out.Edges, adjusted)
	}

	return out
}
