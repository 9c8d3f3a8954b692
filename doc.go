// Package matio saves and loads typed n-dimensional matrices in a compact,
// self-describing binary format.
//
// # Quick Start
//
//	m := matrix.New[float32](3, 4)
//	m.Set(1.5, 0, 2)
//
//	if err := matio.SaveMatrix("weights.mat", m); err != nil {
//	    log.Fatal(err)
//	}
//	back, err := matio.LoadMatrix[float32]("weights.mat")
//
// Loading with the wrong element type fails with *KindMismatchError.
//
// # Multi-matrix Files
//
// A container file holds N ≥ 1 independently self-describing records in
// save order:
//
//	err := matio.SaveMatrices("batch.mat", []matrix.Any{a, b, c})
//	ms, err := matio.LoadMatrices("batch.mat", false)
//	multi, err := matio.HasMultipleMatrices("batch.mat") // reads 16 bytes
//
// Existing single-matrix files can be concatenated without loading them
// by hand:
//
//	c := matio.New(matio.WithConcurrency(8))
//	err := c.SaveMatrixFiles(ctx, "all.mat", []string{"a.mat", "b.mat"})
//
// # Durability
//
// Saves write a temp file next to the target and rename it into place, so
// a failed save never leaves a partial file. WithSync adds fsync of the
// file and its directory.
//
// # Remote Storage
//
// Store runs the same codec against any blobstore.BlobStore (local
// directory, S3, MinIO) and can record what it saved in a catalog:
//
//	st := matio.NewStore(s3.NewStore(client, "bucket", "runs/"), matio.WithCatalog(cat))
//	err := st.SaveMatrix(ctx, "w.mat", m)
//
// # Key Features
//
//   - uint8, int32, float32, float64 and int elements, any rank
//   - LZ4 and ZSTD payload compression
//   - CRC32C checksums on every record
//   - Strided views (Narrow, Transpose) saved without copying by the caller
package matio
