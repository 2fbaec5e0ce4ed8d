// Package branch reassembles one branch of a reconstruction from paginated fetches.
//
// An Accumulator repeatedly asks a Fetcher for (offset, limit) pages, appending
// every returned point to a Buffer in arrival order. Accumulation stops when a
// page is empty, when the source reports no more data, or when a page is shorter
// than requested. A short page always terminates, even if the source claims
// there is more.
//
//	acc := branch.NewAccumulator(client, branch.WithChunkSize(25000))
//	buf, err := acc.Accumulate(ctx, reconstructionID, model.Axon)
//
// A fetch error aborts the branch; the partially accumulated buffer is dropped
// and a *FetchError is returned.
package branch
