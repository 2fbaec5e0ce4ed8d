// Package hash provides the checksums and digests used for data integrity.
//
// # CRC32-Castagnoli (CRC32C)
//
// CRC32C guards uploads: the S3 store sends it as the object checksum so the
// service rejects corrupted bodies. Go's crc32 package uses hardware
// instructions (SSE4.2, ARM CRC) when available.
//
//	checksum := hash.CRC32C(data)
//
// # BLAKE3
//
// BLAKE3-256 digests protect the property snapshot payload. A snapshot whose
// digest does not match is rejected on load instead of being silently reset.
//
//	digest := hash.Digest(payload)
//	ok := hash.Verify(payload, digest)
package hash
