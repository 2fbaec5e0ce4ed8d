package segment

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nmcp/atlas"
	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/internal/compress"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, ct := range []compress.Type{compress.None, compress.LZ4, compress.ZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			x := twoRows(t)

			var buf bytes.Buffer
			require.NoError(t, x.WriteSnapshot(&buf, ct, nil))

			// Loaded rows keep their tags even without an atlas.
			y, err := ReadSnapshot(&buf, nil)
			require.NoError(t, err)
			assert.Equal(t, x.Entries(), y.Entries())
			assert.Equal(t, x.Export(), y.Export())
			assert.True(t, y.Contains(998))
		})
	}
}

func TestSnapshot_LoadAndAppend(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, twoRows(t).WriteSnapshot(&buf, compress.ZSTD, nil))

	y, err := ReadSnapshot(&buf, testTable())
	require.NoError(t, err)

	y.Append(997, "N003-609281", "unknown 3", sez.ID)

	exp := y.Export()
	require.Len(t, exp.IDs, 3)
	assert.Equal(t, "997", exp.IDs[2])
	assert.Equal(t, "N003-609281", exp.Labels[2])
	assert.Equal(t, "unknown 3", exp.Strains[2])
	assert.Equal(t, 1, exp.TagValues[2])
	assert.Equal(t, "SEZ", exp.Tags[1])
	assert.Equal(t, sez.Name, exp.TagDescriptions[1])
}

func TestSnapshot_Codecs(t *testing.T) {
	for _, c := range []codec.Codec{codec.CBOR{}, codec.GoJSON{}, codec.JSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			x := twoRows(t)

			var buf bytes.Buffer
			require.NoError(t, x.WriteSnapshot(&buf, compress.LZ4, c))

			id, _ := codec.IDOf(c)
			assert.Equal(t, id, buf.Bytes()[9])

			y, err := ReadSnapshot(&buf, nil)
			require.NoError(t, err)
			assert.Equal(t, x.Entries(), y.Entries())
		})
	}
}

func TestSnapshot_LegacyCodecByte(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, twoRows(t).WriteSnapshot(&buf, compress.ZSTD, codec.CBOR{}))

	data := buf.Bytes()
	data[9] = 0

	y, err := ReadSnapshot(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, twoRows(t).Entries(), y.Entries())
}

type foreignCodec struct{ codec.CBOR }

func (foreignCodec) Name() string { return "msgpack" }

func TestSnapshot_UnregisteredCodec(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, twoRows(t).WriteSnapshot(&buf, compress.None, foreignCodec{}))
}

func TestSnapshot_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIndex(nil).WriteSnapshot(&buf, compress.ZSTD, nil))

	y, err := ReadSnapshot(&buf, atlas.NewTable())
	require.NoError(t, err)
	assert.Equal(t, 0, y.Len())
}

func TestSnapshot_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, twoRows(t).WriteSnapshot(&a, compress.ZSTD, nil))
	require.NoError(t, twoRows(t).WriteSnapshot(&b, compress.ZSTD, nil))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestSnapshot_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, twoRows(t).WriteSnapshot(&buf, compress.None, nil))
	good := buf.Bytes()

	mutate := func(f func([]byte)) []byte {
		b := bytes.Clone(good)
		f(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated header", good[:10], ErrCorruptSnapshot},
		{"truncated block", good[:len(good)-3], ErrCorruptSnapshot},
		{"bad magic", mutate(func(b []byte) { b[0] ^= 0xff }), ErrCorruptSnapshot},
		{"bad version", mutate(func(b []byte) { b[4] = 9 }), ErrIncompatibleVersion},
		{"bad compression", mutate(func(b []byte) { b[8] = 7 }), ErrCorruptSnapshot},
		{"oversized payload", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[headerSize:], 0xffffffff) }), ErrCorruptSnapshot},
		{"unknown codec", mutate(func(b []byte) { b[9] = 99 }), ErrCorruptSnapshot},
		{"codec mismatch", mutate(func(b []byte) { b[9] = codec.IDJSON }), ErrCorruptSnapshot},
		{"flipped payload bit", mutate(func(b []byte) { b[len(b)-1] ^= 0x01 }), ErrCorruptSnapshot},
		{"flipped digest bit", mutate(func(b []byte) { b[12] ^= 0x01 }), ErrCorruptSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSnapshot(bytes.NewReader(tt.data), nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
