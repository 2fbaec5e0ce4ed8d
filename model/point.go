package model

import (
	"fmt"
)

// NoParent is the parent sample number recorded on a branch root.
const NoParent = -1

// NoRegion is the normalized region id of a point without a brain-region assignment.
const NoRegion int64 = 0

// Branch names one half of a neuron reconstruction.
type Branch uint8

const (
	// Axon is the axonal branch. It donates the shared soma when merging.
	Axon Branch = iota
	// Dendrite is the dendritic branch.
	Dendrite
)

// String returns the lower-case branch name used on the wire.
func (b Branch) String() string {
	switch b {
	case Axon:
		return "axon"
	case Dendrite:
		return "dendrite"
	default:
		return fmt.Sprintf("Branch(%d)", uint8(b))
	}
}

// Branches lists every branch in the order they are assembled.
var Branches = []Branch{Axon, Dendrite}

// Point is one reconstructed sample.
//
// SampleNumber and ParentNumber are 1-based; the branch root carries NoParent.
type Point struct {
	X, Y, Z      float64
	Radius       float64
	SampleNumber int
	ParentNumber int
	StructureID  int
	RegionID     int64
}

// RawPoint is the wire form of a Point. Pointer fields distinguish an absent
// value from a zero value.
type RawPoint struct {
	X                   *float64 `json:"x"`
	Y                   *float64 `json:"y"`
	Z                   *float64 `json:"z"`
	Radius              *float64 `json:"radius"`
	SampleNumber        *int     `json:"sampleNumber"`
	ParentNumber        *int     `json:"parentNumber"`
	StructureIdentifier *int     `json:"structureIdentifier"`
	AllenID             *int64   `json:"allenId"`
}

// MalformedPointError reports a point that is missing a required field or
// carries an invalid value.
type MalformedPointError struct {
	// Index is the position of the point within its branch.
	Index  int
	Field  string
	Reason string
}

func (e *MalformedPointError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}
	return fmt.Sprintf("malformed point %d: %s %s", e.Index, e.Field, reason)
}

// Point converts the wire form into a Point. index is the position of the
// point within its branch and is only used for error reporting.
//
// An absent allenId is normalized to NoRegion and an absent
// structureIdentifier to 0.
func (r RawPoint) Point(index int) (Point, error) {
	switch {
	case r.X == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "x"}
	case r.Y == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "y"}
	case r.Z == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "z"}
	case r.Radius == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "radius"}
	case r.SampleNumber == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "sampleNumber"}
	case r.ParentNumber == nil:
		return Point{}, &MalformedPointError{Index: index, Field: "parentNumber"}
	}

	if *r.Radius < 0 {
		return Point{}, &MalformedPointError{Index: index, Field: "radius", Reason: "is negative"}
	}
	if *r.SampleNumber < 1 {
		return Point{}, &MalformedPointError{Index: index, Field: "sampleNumber", Reason: "is not 1-based"}
	}

	p := Point{
		X:            *r.X,
		Y:            *r.Y,
		Z:            *r.Z,
		Radius:       *r.Radius,
		SampleNumber: *r.SampleNumber,
		ParentNumber: *r.ParentNumber,
		RegionID:     NoRegion,
	}
	if r.StructureIdentifier != nil {
		p.StructureID = *r.StructureIdentifier
	}
	if r.AllenID != nil {
		p.RegionID = *r.AllenID
	}
	return p, nil
}

// ConvertPoints converts a page of wire points, stopping at the first
// malformed one. offset is the branch position of raw[0].
func ConvertPoints(raw []RawPoint, offset int) ([]Point, error) {
	points := make([]Point, len(raw))
	for i, r := range raw {
		p, err := r.Point(offset + i)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}
