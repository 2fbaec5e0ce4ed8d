// Package skeleton assembles vertex/edge graphs from reconstructed branches.
//
// Build turns one branch into a graph whose vertex i is point i of the branch
// and whose edge i-1 links vertex i to its parent. Merge joins an axon graph
// (primary) and a dendrite graph (secondary) that share the soma at their
// roots: the secondary root is dropped and every reference to it is redirected
// to vertex 0 of the primary.
//
//	axon, _ := skeleton.Build(set.Axon.Points)
//	dendrite, _ := skeleton.Build(set.Dendrite.Points)
//	full := skeleton.Merge(axon, dendrite)
//
// Assemble does the same for a branch.Set and handles absent branches.
package skeleton
