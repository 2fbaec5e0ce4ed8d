// Package model defines the data types shared by the reconstruction pipeline.
//
// # Reconstruction Data
//
//   - Point: one reconstructed sample (position, radius, 1-based sample/parent numbers)
//   - RawPoint: the wire form of a Point, with optional fields
//   - Branch: the axon or dendrite half of a reconstruction
//   - Header: per-reconstruction metadata (label, strain, soma region)
//
// # Work Items
//
//   - PendingItem: an external unit of work targeting one skeleton id
//   - State: PENDING, GENERATED or FAILED
package model
