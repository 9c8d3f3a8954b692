// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "matrices/")
//	ms := matio.NewStore(store)
//	err = ms.SaveMatrix(ctx, "weights.mat", m)
//
// # Features
//
//   - Range reads, so the multiplicity probe fetches only the descriptor
//   - Multipart uploads with CRC32C integrity checks
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
