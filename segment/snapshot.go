package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/nmcp/atlas"
	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/internal/compress"
	"github.com/hupe1980/nmcp/internal/hash"
)

const (
	snapshotMagic   = 0x504d4e53 // "SNMP"
	snapshotVersion = 1
	headerSize      = 4 + 4 + 1 + 3 + hash.DigestSize + 4
	// maxSnapshotSize bounds the block and payload lengths read from headers.
	maxSnapshotSize = 1 << 30
)

// ErrCorruptSnapshot is returned for snapshots that fail framing or
// integrity checks.
var ErrCorruptSnapshot = errors.New("segment: corrupt snapshot")

// ErrIncompatibleVersion is returned for snapshots of an unknown version.
var ErrIncompatibleVersion = errors.New("segment: incompatible snapshot version")

func errDuplicateRow(id uint64) error {
	return fmt.Errorf("%w: duplicate row for id %d", ErrCorruptSnapshot, id)
}

type snapshotRow struct {
	ID             uint64 `cbor:"1,keyasint"`
	Label          string `cbor:"2,keyasint"`
	Strain         string `cbor:"3,keyasint"`
	RegionID       int64  `cbor:"4,keyasint"`
	Tag            string `cbor:"5,keyasint"`
	TagDescription string `cbor:"6,keyasint"`
}

type snapshotPayload struct {
	Rows []snapshotRow `cbor:"1,keyasint"`
}

// WriteSnapshot writes the index in its durable binary form.
//
// Format:
// Magic (4 bytes)
// Version (4 bytes)
// Compression (1 byte) + payload codec id (1 byte) + reserved (2 bytes)
// Digest (32 bytes) - BLAKE3-256 of the uncompressed payload
// BlockLength (4 bytes)
// Block - compressed payload
//
// A nil codec selects CBOR. The stored rows carry their resolved tag, so
// loading a snapshot does not depend on the atlas in use.
func (x *Index) WriteSnapshot(w io.Writer, ct compress.Type, c codec.Codec) error {
	if c == nil {
		c = codec.CBOR{}
	}
	codecID, ok := codec.IDOf(c)
	if !ok {
		return fmt.Errorf("segment: codec %q has no snapshot id", c.Name())
	}

	p := snapshotPayload{Rows: make([]snapshotRow, len(x.rows))}
	for i, e := range x.rows {
		p.Rows[i] = snapshotRow(e)
	}

	payload, err := c.Marshal(p)
	if err != nil {
		return fmt.Errorf("segment: encode snapshot: %w", err)
	}

	block, err := compress.Compress(payload, ct)
	if err != nil {
		return fmt.Errorf("segment: compress snapshot: %w", err)
	}

	digest := hash.Digest(payload)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(header[4:8], snapshotVersion)
	header[8] = byte(ct)
	header[9] = codecID
	copy(header[12:12+hash.DigestSize], digest[:])
	binary.LittleEndian.PutUint32(header[12+hash.DigestSize:], uint32(len(block)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(block); err != nil {
		return err
	}
	return nil
}

// ReadSnapshot loads an index written by WriteSnapshot. Rows appended later
// are resolved with resolver.
func ReadSnapshot(r io.Reader, resolver atlas.Resolver) (*Index, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptSnapshot, err)
	}

	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != snapshotMagic {
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorruptSnapshot, magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}

	ct := compress.Type(header[8])
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptSnapshot, header[8])
	}
	// Snapshots written before the codec id was recorded carry 0 and CBOR.
	codecID := header[9]
	if codecID == 0 {
		codecID = codec.IDCBOR
	}
	c, ok := codec.ByID(codecID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorruptSnapshot, header[9])
	}
	digest := header[12 : 12+hash.DigestSize]

	length := binary.LittleEndian.Uint32(header[12+hash.DigestSize:])
	if length > maxSnapshotSize {
		return nil, fmt.Errorf("%w: block length %d", ErrCorruptSnapshot, length)
	}

	block := make([]byte, length)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, fmt.Errorf("%w: read block: %v", ErrCorruptSnapshot, err)
	}

	payload, err := compress.Decompress(block, ct, maxSnapshotSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if !hash.Verify(payload, digest) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorruptSnapshot)
	}

	var p snapshotPayload
	if err := c.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrCorruptSnapshot, err)
	}

	rows := make([]Entry, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = Entry(row)
	}

	x := NewIndex(resolver)
	if err := x.restore(rows); err != nil {
		return nil, err
	}
	return x, nil
}
