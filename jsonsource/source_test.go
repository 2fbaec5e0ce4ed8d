package jsonsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nmcp/branch"
	"github.com/hupe1980/nmcp/model"
)

const neuronFile = `{
  "neurons": [
    {
      "idString": "N015-609281",
      "DOI": "10.25378/janelia.123",
      "soma": {"x": 1, "y": 2, "z": 3, "allenId": 632},
      "sample": {"strain": "Sim1-Cre"},
      "axon": [
        {"x": 1, "y": 2, "z": 3, "radius": 1, "sampleNumber": 1, "parentNumber": -1, "structureIdentifier": 1, "allenId": 632},
        {"x": 2, "y": 2, "z": 3, "radius": 1, "sampleNumber": 2, "parentNumber": 1, "structureIdentifier": 2},
        {"x": 3, "y": 2, "z": 3, "radius": 1, "sampleNumber": 3, "parentNumber": 2, "structureIdentifier": 2, "allenId": 62}
      ],
      "dendrite": [
        {"x": 1, "y": 2, "z": 3, "radius": 1, "sampleNumber": 1, "parentNumber": -1, "structureIdentifier": 1, "allenId": 632},
        {"x": 1, "y": 3, "z": 3, "radius": 0.5, "sampleNumber": 2, "parentNumber": 1, "structureIdentifier": 3}
      ]
    },
    {
      "idString": "XYZ",
      "soma": {"allenId": null},
      "axon": [],
      "dendrite": []
    }
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSkeletonID(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"N015-609281", 15, true},
		{"N001", 1, true},
		{"N1", 1, true},
		{"AA0123", 0, false},
		{"N", 0, false},
		{"", 0, false},
		{"XYZ", 0, false},
		{"N-12", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SkeletonID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeuron_Header(t *testing.T) {
	f, err := Parse([]byte(neuronFile))
	require.NoError(t, err)
	require.Len(t, f.Neurons, 2)

	h := f.Neurons[0].Header()
	assert.Equal(t, model.Header{
		ID:           "N015-609281",
		Label:        "N015-609281",
		Strain:       "Sim1-Cre",
		DOI:          "10.25378/janelia.123",
		SomaRegionID: 632,
	}, h)

	h = f.Neurons[1].Header()
	assert.Equal(t, model.NoRegion, h.SomaRegionID)
	assert.Equal(t, model.DefaultStrain, h.NormalizedStrain())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"neurons": [`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", neuronFile)
	writeFile(t, dir, "notes.txt", "ignored")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"XYZ"}, s.Skipped())

	items, err := s.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.PendingItem{
		{ID: "N015-609281", SkeletonID: 15, ReconstructionID: "N015-609281"},
	}, items)
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSource_MarkRemovesFromPending(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(neuronFile))
	require.NoError(t, err)

	s := New()
	s.Add(&f.Neurons[0], 99)

	require.NoError(t, s.MarkGenerated(ctx, "N015-609281"))
	state, ok := s.State("N015-609281")
	require.True(t, ok)
	assert.Equal(t, model.StateGenerated, state)

	items, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Re-adding makes the neuron pending again.
	s.Add(&f.Neurons[0], 99)
	items, err = s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(99), items[0].SkeletonID)
	assert.Equal(t, 1, s.Len())

	assert.ErrorIs(t, s.MarkFailed(ctx, "nope"), ErrUnknownReconstruction)
}

func TestSource_FetchPage(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(neuronFile))
	require.NoError(t, err)

	s := New()
	s.AddNeuron(&f.Neurons[0])

	page, err := s.FetchPage(ctx, "N015-609281", model.Axon, 0, 2)
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	require.Len(t, page.Points, 2)
	assert.Equal(t, int64(632), page.Points[0].RegionID)
	assert.Equal(t, model.NoRegion, page.Points[1].RegionID)

	page, err = s.FetchPage(ctx, "N015-609281", model.Axon, 2, 2)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Points, 1)

	page, err = s.FetchPage(ctx, "N015-609281", model.Axon, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Points)

	_, err = s.FetchPage(ctx, "missing", model.Axon, 0, 2)
	assert.ErrorIs(t, err, ErrUnknownReconstruction)
}

func TestSource_Accumulate(t *testing.T) {
	f, err := Parse([]byte(neuronFile))
	require.NoError(t, err)

	s := New()
	s.AddNeuron(&f.Neurons[0])

	acc := branch.NewAccumulator(s, branch.WithChunkSize(1))
	set, err := acc.AccumulateAll(context.Background(), "N015-609281")
	require.NoError(t, err)
	assert.Equal(t, 3, set.Axon.Len())
	assert.Equal(t, 2, set.Dendrite.Len())
	assert.Equal(t, 0.5, set.Dendrite.Points[1].Radius)
}

func TestSource_MalformedPoint(t *testing.T) {
	f, err := Parse([]byte(`{"neurons":[{"idString":"N002","axon":[{"x":1,"y":2,"z":3,"radius":1,"parentNumber":-1}]}]}`))
	require.NoError(t, err)

	s := New()
	s.AddNeuron(&f.Neurons[0])

	_, err = s.FetchPage(context.Background(), "N002", model.Axon, 0, 10)
	var mpe *model.MalformedPointError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, "sampleNumber", mpe.Field)
	assert.Equal(t, 0, mpe.Index)
}

func TestSource_MalformedPointOnLaterPage(t *testing.T) {
	f, err := Parse([]byte(`{"neurons":[{"idString":"N003","axon":[
		{"x":1,"y":2,"z":3,"radius":1,"sampleNumber":1,"parentNumber":-1},
		{"x":1,"y":2,"z":3,"radius":1,"sampleNumber":2,"parentNumber":1},
		{"x":1,"y":2,"z":3,"radius":1,"sampleNumber":3,"parentNumber":2},
		{"x":1,"y":2,"z":3,"sampleNumber":4,"parentNumber":3}
	]}]}`))
	require.NoError(t, err)

	s := New()
	s.AddNeuron(&f.Neurons[0])

	acc := branch.NewAccumulator(s, branch.WithChunkSize(2))
	_, err = acc.Accumulate(context.Background(), "N003", model.Axon)

	var mpe *model.MalformedPointError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, "radius", mpe.Field)
	assert.Equal(t, 3, mpe.Index)
}
