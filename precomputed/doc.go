// Package precomputed persists skeletons and their properties as a
// Neuroglancer precomputed segmentation dataset.
//
// # Layout
//
//	info                              layer info (segmentation, uint64)
//	skeleton/info                     skeleton info (transform, vertex attributes)
//	skeleton/<id>                     encoded skeleton of segment <id>
//	segment_properties/info           property descriptor (JSON)
//	segment_properties/info.snapshot  durable property index (binary)
//
// # Transactions
//
// Commit, CommitAll and Remove are read-modify-write cycles on the snapshot.
// Each runs under the dataset's lock.Locker: load the snapshot, mutate the
// index, write skeleton blobs, then write the descriptor and the snapshot. A
// failure before the snapshot write leaves the previous snapshot in place;
// the snapshot, not the descriptor, is the source of truth.
//
// # Skeleton encoding
//
// Skeletons use the unsharded Neuroglancer format, little-endian:
//
//	uint32 num_vertices
//	uint32 num_edges
//	float32[num_vertices*3] positions
//	uint32[num_edges*2] edges (child, parent)
//	float32[num_vertices] radius
//	float32[num_vertices] allenId
//	float32[num_vertices] compartment
package precomputed
