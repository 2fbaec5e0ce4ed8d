// Package compress implements the block compression used by the property
// snapshot frame.
//
// A block is [UncompressedSize uint32][CompressedSize uint32][Data...] in
// little-endian order. CompressedSize 0 marks a block stored uncompressed,
// which is also what Compress emits when compression does not pay off.
package compress
