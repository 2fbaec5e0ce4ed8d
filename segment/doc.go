// Package segment maintains the per-skeleton property table of a dataset.
//
// An Index maps a skeleton id to a label, a strain and a categorical tag
// derived from the soma's brain region. Rows keep their insertion order;
// appending an existing id updates its row in place, and removing a row
// shifts later rows down by one.
//
// Export produces the descriptor consumed by viewers. The tag column is
// encoded as ranks into the sorted list of distinct tags. Ranks are computed
// fresh on every export, so the rank of a given tag may change when the set
// of distinct tags changes:
//
//	idx := segment.NewIndex(table)
//	idx.Append(998, "N001-609281", "unknown 1", 62)  // mlf
//	idx.Append(999, "N002-609281", "unknown 2", 632) // DG-sg
//	exp := idx.Export()
//	// exp.Tags      == ["DG-sg", "mlf"]
//	// exp.TagValues == [1, 0]
//
// The index is durable only through its snapshot (WriteSnapshot and
// ReadSnapshot). An Index is not safe for concurrent mutation; datasets
// serialize read-modify-write cycles with a lock.
package segment
