// Package blobstore provides the storage abstraction behind precomputed datasets.
//
// A dataset is a tree of named blobs (info files, skeleton binaries, the
// property descriptor and its snapshot). BlobStore reads, writes, deletes and
// lists them. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic rename on write
//   - MemoryStore: ordered in-memory store for tests and dry runs
//   - s3.Store: Amazon S3 with CRC32C-checked uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Prefixed scopes a store to a sub-tree, which is how the full, axon and
// dendrite datasets share one location:
//
//	root := blobstore.NewLocalStore("/data/precomputed")
//	full := blobstore.Prefixed(root, "full")
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)      // Open for reading
//	    Put(ctx, name, data) error         // Atomic write
//	    Delete(ctx, name) error            // Idempotent
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
