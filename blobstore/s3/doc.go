// Package s3 provides an S3 implementation of the blobstore.BlobStore interface
// and a DynamoDB lease lock for datasets shared by several workers.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("precomputed/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	lease := s3.NewDDBLock(dynamodb.NewFromConfig(cfg), "nmcp-locks", "my-bucket/precomputed/full")
//	ds := precomputed.NewDataset(blobstore.Prefixed(store, "full"), precomputed.WithLocker(lease))
//
// # Features
//
//   - Range reads for partial fetches
//   - CRC32C-checked single-request puts, multipart uploads for large blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Conditional-write lease lock with expiry (DDBLock)
package s3
