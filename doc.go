// Package nmcp generates Neuroglancer precomputed skeleton datasets from
// neuron reconstructions.
//
// A Worker polls a WorkSource for pending items. For each item it reads the
// reconstruction header, accumulates the paginated axon and dendrite samples,
// assembles one skeleton per configured variant and commits it, together with
// its segment properties, to the variant's dataset. The item is then reported
// as generated or failed. One failing item never aborts a cycle.
//
// Quick start:
//
//	client, _ := remote.New(url, func(o *remote.Options) { o.AuthKey = key })
//	full := precomputed.NewDataset(blobstore.NewLocalStore("/data/full"))
//
//	w, err := nmcp.New(client, client, []nmcp.Target{
//		{Variant: skeleton.Full, Dataset: full},
//	}, nmcp.WithLogLevel(slog.LevelInfo))
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = w.Run(ctx) // until ctx is cancelled
//
// Subpackages:
//
//   - branch: paginated branch accumulation
//   - skeleton: graph construction, axon/dendrite merge and validation
//   - segment: the segment property index and its snapshot format
//   - precomputed: dataset layout and transactions on a blob store
//   - blobstore: local, in-memory, S3 and MinIO storage
//   - remote, jsonsource: work-item and reconstruction sources
package nmcp
