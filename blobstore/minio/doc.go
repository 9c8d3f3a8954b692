// Package minio provides a BlobStore backed by the MinIO client, for MinIO
// and other S3-compatible servers (Ceph, Garage, SeaweedFS).
//
//	store, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", false, "matrices", "run-1/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = matio.NewStore(store).SaveMatrices(ctx, "batch.mat", ms)
package minio
