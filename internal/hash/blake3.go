package hash

import (
	"crypto/subtle"

	"github.com/zeebo/blake3"
)

// DigestSize is the size of a BLAKE3-256 digest in bytes.
const DigestSize = 32

// Digest returns the BLAKE3-256 digest of data.
func Digest(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}

// Verify reports whether digest is the BLAKE3-256 digest of data.
func Verify(data []byte, digest []byte) bool {
	sum := blake3.Sum256(data)
	return subtle.ConstantTimeCompare(sum[:], digest) == 1
}
