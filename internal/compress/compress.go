package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type is the compression algorithm of a block.
type Type uint8

const (
	// None stores blocks verbatim.
	None Type = 0
	// LZ4 uses LZ4 block compression.
	LZ4 Type = 1
	// ZSTD uses ZSTD block compression.
	ZSTD Type = 2
)

// String returns the configuration name of t.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Parse parses a configuration name. The empty string selects ZSTD.
func Parse(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zstd":
		return ZSTD, nil
	case "lz4":
		return LZ4, nil
	case "none", "off":
		return None, nil
	default:
		return None, fmt.Errorf("compress: unknown type %q", s)
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t <= ZSTD
}

// ErrCorrupt is returned for blocks that cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt block")

const headerSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress encodes data as a block of type t.
func Compress(data []byte, t Type) ([]byte, error) {
	var compressed []byte

	switch {
	case !t.Valid():
		return nil, fmt.Errorf("compress: unknown type %d", t)
	case t == None || len(data) == 0:
	case t == LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case t == ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	// Incompressible payloads are stored as is.
	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[headerSize:], data)
		return out, nil
	}

	out := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[headerSize:], compressed)
	return out, nil
}

// Decompress decodes a block written by Compress with the same type. Blocks
// whose header declares more than maxSize uncompressed bytes are rejected
// before anything is allocated.
func Decompress(block []byte, t Type, maxSize int) ([]byte, error) {
	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(block))
	}

	size := binary.LittleEndian.Uint32(block[0:])
	csize := binary.LittleEndian.Uint32(block[4:])
	body := block[headerSize:]

	if uint64(size) > uint64(max(maxSize, 0)) {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrCorrupt, size, maxSize)
	}

	if csize == 0 {
		if uint32(len(body)) != size {
			return nil, fmt.Errorf("%w: stored size %d, have %d", ErrCorrupt, size, len(body))
		}
		out := make([]byte, size)
		copy(out, body)
		return out, nil
	}

	if uint32(len(body)) != csize {
		return nil, fmt.Errorf("%w: compressed size %d, have %d", ErrCorrupt, csize, len(body))
	}

	out := make([]byte, size)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed block of type %s", ErrCorrupt, t)
	}
}
