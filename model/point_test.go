package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRawPoint_Point(t *testing.T) {
	raw := RawPoint{
		X: ptr(1.5), Y: ptr(2.5), Z: ptr(3.5),
		Radius:       ptr(0.25),
		SampleNumber: ptr(2),
		ParentNumber: ptr(1),
	}

	p, err := raw.Point(0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, p.X)
	assert.Equal(t, 2, p.SampleNumber)
	assert.Equal(t, 1, p.ParentNumber)
	assert.Equal(t, NoRegion, p.RegionID)
	assert.Equal(t, 0, p.StructureID)

	raw.AllenID = ptr(int64(437))
	raw.StructureIdentifier = ptr(2)
	p, err = raw.Point(0)
	require.NoError(t, err)
	assert.Equal(t, int64(437), p.RegionID)
	assert.Equal(t, 2, p.StructureID)
}

func TestRawPoint_Malformed(t *testing.T) {
	valid := func() RawPoint {
		return RawPoint{
			X: ptr(1.0), Y: ptr(1.0), Z: ptr(1.0),
			Radius:       ptr(1.0),
			SampleNumber: ptr(1),
			ParentNumber: ptr(NoParent),
		}
	}

	tests := []struct {
		name  string
		edit  func(*RawPoint)
		field string
	}{
		{"missing x", func(r *RawPoint) { r.X = nil }, "x"},
		{"missing z", func(r *RawPoint) { r.Z = nil }, "z"},
		{"missing radius", func(r *RawPoint) { r.Radius = nil }, "radius"},
		{"negative radius", func(r *RawPoint) { r.Radius = ptr(-1.0) }, "radius"},
		{"missing sample", func(r *RawPoint) { r.SampleNumber = nil }, "sampleNumber"},
		{"zero sample", func(r *RawPoint) { r.SampleNumber = ptr(0) }, "sampleNumber"},
		{"missing parent", func(r *RawPoint) { r.ParentNumber = nil }, "parentNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.edit(&raw)

			_, err := raw.Point(7)
			var mpe *MalformedPointError
			require.ErrorAs(t, err, &mpe)
			assert.Equal(t, 7, mpe.Index)
			assert.Equal(t, tt.field, mpe.Field)
		})
	}
}

func TestConvertPoints_StopsAtFirstMalformed(t *testing.T) {
	good := RawPoint{X: ptr(0.0), Y: ptr(0.0), Z: ptr(0.0), Radius: ptr(1.0), SampleNumber: ptr(1), ParentNumber: ptr(-1)}
	bad := good
	bad.Y = nil

	_, err := ConvertPoints([]RawPoint{good, bad, good}, 0)
	var mpe *MalformedPointError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, 1, mpe.Index)

	// Pages after the first report branch positions.
	_, err = ConvertPoints([]RawPoint{good, bad}, 25000)
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, 25001, mpe.Index)
	assert.Contains(t, err.Error(), "malformed point 25001")

	points, err := ConvertPoints([]RawPoint{good, good}, 0)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestHeader_NormalizedStrain(t *testing.T) {
	assert.Equal(t, DefaultStrain, Header{}.NormalizedStrain())
	assert.Equal(t, "C57BL/6J", Header{Strain: "C57BL/6J"}.NormalizedStrain())
}

func TestBranchAndStateNames(t *testing.T) {
	assert.Equal(t, "axon", Axon.String())
	assert.Equal(t, "dendrite", Dendrite.String())
	assert.Equal(t, "GENERATED", StateGenerated.String())
	assert.Equal(t, "FAILED", StateFailed.String())
}
