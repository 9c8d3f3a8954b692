package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/matio"
	"github.com/hupe1980/matio/blobstore"
	miniostore "github.com/hupe1980/matio/blobstore/minio"
	s3store "github.com/hupe1980/matio/blobstore/s3"
	"github.com/hupe1980/matio/catalog"
	ddbcatalog "github.com/hupe1980/matio/catalog/dynamodb"
)

type uploadFlags struct {
	bucket    string
	prefix    string
	endpoint  string
	insecure  bool
	region    string
	table     string
	namespace string
}

func runUpload(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "upload", "-bucket B [-prefix P] [-endpoint URL] [-table T] FILE...")
	var f uploadFlags
	fs.StringVar(&f.bucket, "bucket", "", "destination bucket")
	fs.StringVar(&f.prefix, "prefix", "", "key prefix")
	fs.StringVar(&f.endpoint, "endpoint", "", "MinIO endpoint (host:port); S3 when empty")
	fs.BoolVar(&f.insecure, "insecure", false, "use plain HTTP for MinIO")
	fs.StringVar(&f.region, "region", "", "AWS region override")
	fs.StringVar(&f.table, "table", "", "DynamoDB table to record uploads in")
	fs.StringVar(&f.namespace, "namespace", "default", "catalog namespace")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	if f.bucket == "" {
		fs.Usage()
		return errUsage
	}

	bs, cat, err := openRemote(ctx, f)
	if err != nil {
		return err
	}
	optFns := []matio.Option{matio.WithLogger(e.logger)}
	if cat != nil {
		optFns = append(optFns, matio.WithCatalog(cat))
	}
	return upload(ctx, e, e.codec(), matio.NewStore(bs, optFns...), fs.Args())
}

// upload re-encodes each local file into the store under its base name.
func upload(ctx context.Context, e *env, local *matio.Codec, store *matio.Store, paths []string) error {
	for _, path := range paths {
		ms, err := local.LoadMatrices(path, true)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		multi, err := local.HasMultipleMatrices(path)
		if err != nil {
			return err
		}
		if multi {
			err = store.SaveMatrices(ctx, name, ms)
		} else {
			err = store.SaveMatrix(ctx, name, ms[0])
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(e.stdout, "uploaded %s (%d matrices)\n", name, len(ms))
	}
	return nil
}

func openRemote(ctx context.Context, f uploadFlags) (blobstore.BlobStore, catalog.Catalog, error) {
	var cat catalog.Catalog
	var awsCfg aws.Config
	needAWS := f.endpoint == "" || f.table != ""
	if needAWS {
		var loadOpts []func(*config.LoadOptions) error
		if f.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(f.region))
		}
		var err error
		if awsCfg, err = config.LoadDefaultConfig(ctx, loadOpts...); err != nil {
			return nil, nil, err
		}
	}
	if f.table != "" {
		cat = ddbcatalog.New(dynamodb.NewFromConfig(awsCfg), f.table, f.namespace)
	}

	if f.endpoint == "" {
		return s3store.NewStore(s3.NewFromConfig(awsCfg), f.bucket, f.prefix), cat, nil
	}

	ak, sk := os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")
	if ak == "" || sk == "" {
		return nil, nil, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set for -endpoint")
	}
	st, err := miniostore.Dial(f.endpoint, ak, sk, !f.insecure, f.bucket, f.prefix)
	if err != nil {
		return nil, nil, err
	}
	if err := st.EnsureBucket(ctx); err != nil {
		return nil, nil, err
	}
	return st, cat, nil
}
