package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/nmcp"
	"github.com/hupe1980/nmcp/atlas"
	"github.com/hupe1980/nmcp/blobstore"
	"github.com/hupe1980/nmcp/blobstore/minio"
	"github.com/hupe1980/nmcp/blobstore/s3"
	"github.com/hupe1980/nmcp/config"
	"github.com/hupe1980/nmcp/lock"
	"github.com/hupe1980/nmcp/precomputed"
	"github.com/hupe1980/nmcp/skeleton"
)

// location is a parsed dataset base location.
type location struct {
	scheme string
	// host is the bucket for s3 and the endpoint for minio.
	host  string
	path  string
	query url.Values
}

func parseLocation(raw string) (location, error) {
	if raw == "" {
		return location{}, fmt.Errorf("%w: output location is required", config.ErrInvalidConfig)
	}
	if !strings.Contains(raw, "://") {
		return location{scheme: "file", path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return location{}, fmt.Errorf("%w: output location: %v", config.ErrInvalidConfig, err)
	}

	loc := location{scheme: u.Scheme, host: u.Host, path: u.Path, query: u.Query()}
	switch loc.scheme {
	case "file":
		// file://relative/dir keeps the first segment in the host.
		loc.path = u.Host + u.Path
		loc.host = ""
	case "mem":
	case "s3", "minio":
		if loc.host == "" {
			return location{}, fmt.Errorf("%w: %s location needs a bucket", config.ErrInvalidConfig, loc.scheme)
		}
	default:
		return location{}, fmt.Errorf("%w: unsupported location scheme %q", config.ErrInvalidConfig, loc.scheme)
	}
	return loc, nil
}

// openStore opens the blob store of a location.
//
//	/data/precomputed, file:///data/precomputed
//	mem://
//	s3://bucket/prefix?region=eu-west-1&endpoint=http://localhost:4566
//	minio://host:9000/bucket/prefix?secure=false
//
// MinIO credentials are read from MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
func openStore(ctx context.Context, loc location) (blobstore.BlobStore, error) {
	switch loc.scheme {
	case "file":
		return blobstore.NewLocalStore(loc.path), nil
	case "mem":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		opts := []func(*s3.Options){s3.WithPrefix(loc.path)}
		if region := loc.query.Get("region"); region != "" {
			opts = append(opts, s3.WithRegion(region))
		}
		if endpoint := loc.query.Get("endpoint"); endpoint != "" {
			opts = append(opts, s3.WithEndpoint(endpoint))
		}
		return s3.New(ctx, loc.host, opts...)
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(loc.path, "/"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("%w: minio location needs a bucket", config.ErrInvalidConfig)
		}
		secure := true
		if v := loc.query.Get("secure"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: minio secure: %v", config.ErrInvalidConfig, err)
			}
			secure = b
		}
		client, err := minio.Dial(loc.host, os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), secure)
		if err != nil {
			return nil, err
		}
		return minio.NewStore(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("%w: unsupported location scheme %q", config.ErrInvalidConfig, loc.scheme)
	}
}

func openLocker(ctx context.Context, cfg *config.Config, loc location) (lock.Locker, error) {
	switch {
	case cfg.Output.LockTable != "":
		client, err := s3.NewDDBClient(ctx, loc.query.Get("region"))
		if err != nil {
			return nil, err
		}
		return s3.NewDDBLock(client, cfg.Output.LockTable, cfg.Output.Location), nil
	case cfg.Output.LockFile != "":
		return lock.NewFile(cfg.Output.LockFile), nil
	default:
		return lock.NewMutex(), nil
	}
}

// variantDataset is one configured dataset variant.
type variantDataset struct {
	variant skeleton.Variant
	dataset *precomputed.Dataset
}

// openDatasets opens one dataset per configured variant below the output
// location. All datasets share one locker.
func openDatasets(ctx context.Context, cfg *config.Config) ([]variantDataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	variants, err := cfg.Variants()
	if err != nil {
		return nil, err
	}
	compression, err := cfg.Compression()
	if err != nil {
		return nil, err
	}
	snapCodec, err := cfg.SnapshotCodec()
	if err != nil {
		return nil, err
	}

	var resolver atlas.Resolver
	if cfg.Atlas.Path != "" {
		table, err := atlas.Load(cfg.Atlas.Path)
		if err != nil {
			return nil, err
		}
		resolver = table
	}

	loc, err := parseLocation(cfg.Output.Location)
	if err != nil {
		return nil, err
	}
	base, err := openStore(ctx, loc)
	if err != nil {
		return nil, err
	}
	locker, err := openLocker(ctx, cfg, loc)
	if err != nil {
		return nil, err
	}

	out := make([]variantDataset, 0, len(variants))
	for _, v := range variants {
		ds := precomputed.NewDataset(
			blobstore.Prefixed(base, v.String()),
			precomputed.WithLocker(locker),
			precomputed.WithResolver(resolver),
			precomputed.WithCompression(compression),
			precomputed.WithSnapshotCodec(snapCodec),
		)
		out = append(out, variantDataset{variant: v, dataset: ds})
	}
	return out, nil
}

func targets(datasets []variantDataset) []nmcp.Target {
	out := make([]nmcp.Target, len(datasets))
	for i, d := range datasets {
		out[i] = nmcp.Target{Variant: d.variant, Dataset: d.dataset}
	}
	return out
}
