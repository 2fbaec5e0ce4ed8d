package branch

import "github.com/hupe1980/nmcp/model"

// Buffer is the ordered, append-only point sequence of one branch.
//
// Order is load-bearing: point i becomes vertex i of the branch graph.
type Buffer struct {
	Branch model.Branch
	Points []model.Point
	// Pages is the number of non-empty pages appended.
	Pages int
}

// NewBuffer creates an empty buffer for the given branch.
func NewBuffer(b model.Branch) *Buffer {
	return &Buffer{Branch: b}
}

// Len returns the number of accumulated points. A nil buffer is empty.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Points)
}

// Empty reports whether the branch has no points.
func (b *Buffer) Empty() bool {
	return b.Len() == 0
}

// Append adds one page of points to the end of the buffer.
func (b *Buffer) Append(points ...model.Point) {
	if len(points) == 0 {
		return
	}
	b.Points = append(b.Points, points...)
	b.Pages++
}

// Set holds both branches of one reconstruction. Either may be empty.
type Set struct {
	Axon     *Buffer
	Dendrite *Buffer
}

// Get returns the buffer for b.
func (s Set) Get(b model.Branch) *Buffer {
	if b == model.Dendrite {
		return s.Dendrite
	}
	return s.Axon
}

// Total returns the combined point count of both branches.
func (s Set) Total() int {
	return s.Axon.Len() + s.Dendrite.Len()
}
