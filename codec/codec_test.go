package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     uint64   `json:"id" cbor:"1,keyasint"`
	Label  string   `json:"label" cbor:"2,keyasint"`
	Values []string `json:"values" cbor:"3,keyasint"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "cbor"} {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			in := row{ID: 42, Label: "N042-000001", Values: []string{"a", "b"}}
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out row
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCBOR_Deterministic(t *testing.T) {
	a := map[string]int{"b": 2, "a": 1, "c": 3}
	b := map[string]int{"c": 3, "a": 1, "b": 2}

	x, err := CBOR{}.Marshal(a)
	require.NoError(t, err)
	y, err := CBOR{}.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, x, y)
}

func TestCBOR_AnyMapsDecodeWithStringKeys(t *testing.T) {
	data, err := CBOR{}.Marshal(map[string]any{"k": "v"})
	require.NoError(t, err)

	var out any
	require.NoError(t, CBOR{}.Unmarshal(data, &out))
	assert.IsType(t, map[string]any{}, out)
}

func TestByID(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}, CBOR{}} {
		id, ok := IDOf(c)
		require.True(t, ok, c.Name())

		got, ok := ByID(id)
		require.True(t, ok)
		assert.Equal(t, c, got)
	}

	_, ok := ByID(0)
	assert.False(t, ok)
	_, ok = ByID(42)
	assert.False(t, ok)
	_, ok = IDOf(nil)
	assert.False(t, ok)
}

func TestGoJSON_MarshalIndent(t *testing.T) {
	data, err := GoJSON{}.MarshalIndent(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
}
