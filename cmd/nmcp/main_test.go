package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/config"
)

const neuronFile = `{
  "neurons": [
    {
      "idString": "N015-609281",
      "soma": {"x": 1, "y": 2, "z": 3, "allenId": 632},
      "sample": {"strain": "Sim1-Cre"},
      "axon": [
        {"x": 1, "y": 2, "z": 3, "radius": 1, "sampleNumber": 1, "parentNumber": -1, "structureIdentifier": 1, "allenId": 632},
        {"x": 2, "y": 2, "z": 3, "radius": 1, "sampleNumber": 2, "parentNumber": 1, "structureIdentifier": 2}
      ],
      "dendrite": [
        {"x": 1, "y": 2, "z": 3, "radius": 1, "sampleNumber": 1, "parentNumber": -1, "structureIdentifier": 1, "allenId": 632},
        {"x": 1, "y": 3, "z": 3, "radius": 0.5, "sampleNumber": 2, "parentNumber": 1, "structureIdentifier": 3}
      ]
    },
    {
      "idString": "XYZ",
      "axon": [],
      "dendrite": []
    }
  ]
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want location
	}{
		{raw: "/data/precomputed", want: location{scheme: "file", path: "/data/precomputed"}},
		{raw: "file:///data/precomputed", want: location{scheme: "file", path: "/data/precomputed"}},
		{raw: "mem://", want: location{scheme: "mem"}},
		{raw: "s3://bucket/nmcp/precomputed", want: location{scheme: "s3", host: "bucket", path: "/nmcp/precomputed"}},
		{raw: "minio://localhost:9000/bucket/nmcp", want: location{scheme: "minio", host: "localhost:9000", path: "/bucket/nmcp"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want.scheme, got.scheme)
			assert.Equal(t, tt.want.host, got.host)
			assert.Equal(t, tt.want.path, got.path)
		})
	}

	t.Run("query", func(t *testing.T) {
		got, err := parseLocation("s3://bucket/prefix?region=eu-west-1")
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", got.query.Get("region"))
	})

	for _, raw := range []string{"", "ftp://host/dir", "s3:///prefix"} {
		_, err := parseLocation(raw)
		assert.ErrorIs(t, err, config.ErrInvalidConfig, raw)
	}
}

func TestIngestListRemove(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "neurons.json")
	require.NoError(t, os.WriteFile(input, []byte(neuronFile), 0o600))
	output := filepath.Join(dir, "precomputed")

	out, err := execute(t, "ingest", "--output", output, input)
	require.NoError(t, err)
	assert.Contains(t, out, "pending: 1, generated: 1, failed: 0")

	for _, name := range []string{
		"full/info",
		"full/skeleton/info",
		"full/skeleton/15",
		"full/segment_properties/info",
		"axon/skeleton/15",
		"dendrite/skeleton/15",
	} {
		assert.FileExists(t, filepath.Join(output, filepath.FromSlash(name)))
	}

	out, err = execute(t, "list", "--output", output, "--variant", "axon", "--check")
	require.NoError(t, err)
	assert.Equal(t, "axon (1)\n  15\n", out)

	out, err = execute(t, "remove", "--output", output, "--variant", "full", "15", "16")
	require.NoError(t, err)
	assert.Equal(t, "full: removed 15\nfull: 16 not found\n", out)
	assert.NoFileExists(t, filepath.Join(output, "full", "skeleton", "15"))

	out, err = execute(t, "list", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "full (0)\n")
	assert.Contains(t, out, "axon (1)\n  15\n")
	assert.Contains(t, out, "dendrite (1)\n  15\n")
}

func TestIngest_ExplicitID(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "neuron.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"neurons":[{"idString":"XYZ","axon":[
		{"x":1,"y":2,"z":3,"radius":1,"sampleNumber":1,"parentNumber":-1}]}]}`), 0o600))
	output := filepath.Join(dir, "precomputed")

	_, err := execute(t, "ingest", "--output", output, "--variants", "full,axon", "--snapshot-codec", "json", "--id", "7", input)
	require.NoError(t, err)

	snap, err := os.ReadFile(filepath.Join(output, "full", "segment_properties", "info.snapshot"))
	require.NoError(t, err)
	assert.Equal(t, codec.IDJSON, snap[9])
	assert.FileExists(t, filepath.Join(output, "full", "skeleton", "7"))
	assert.FileExists(t, filepath.Join(output, "axon", "skeleton", "7"))
	assert.NoDirExists(t, filepath.Join(output, "dendrite"))
}

func TestIngest_FailedNeuron(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "neuron.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"neurons":[{"idString":"N001","axon":[],"dendrite":[]}]}`), 0o600))

	out, err := execute(t, "ingest", "--output", filepath.Join(dir, "precomputed"), input)
	require.Error(t, err)
	assert.Contains(t, out, "failed: 1")
}

func TestWorker_RequiresURL(t *testing.T) {
	t.Setenv(config.EnvPrefix+"SOURCE_URL", "")

	_, err := execute(t, "worker", "--output", t.TempDir(), "--once")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRemove_InvalidID(t *testing.T) {
	_, err := execute(t, "remove", "--output", t.TempDir(), "abc")
	assert.ErrorContains(t, err, `invalid skeleton id "abc"`)
}
