// Package resolver maps index locations such as s3://bucket/key to a blob store.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/coronin/Crisprs/blobstore"
	"github.com/coronin/Crisprs/blobstore/minio"
	"github.com/coronin/Crisprs/blobstore/s3"
)

// ErrUnsupportedScheme is returned for a location with an unknown URL scheme.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// Config carries the backend settings needed to open remote locations.
type Config struct {
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	MinIO minio.Config

	// Memory backs mem:// locations.
	Memory *blobstore.MemoryStore
}

// IsLocal reports whether location is a plain path or file:// URL.
func IsLocal(location string) bool {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return true
	}
	// Windows drive letters parse as a one-letter scheme.
	return len(u.Scheme) == 1
}

// LocalPath returns the filesystem path of a local location.
func LocalPath(location string) string {
	if strings.HasPrefix(location, "file://") {
		return strings.TrimPrefix(location, "file://")
	}
	return location
}

// Resolve returns the store holding location and the blob name inside it.
//
//	/data/hg38.crx            local directory /data, blob hg38.crx
//	file:///data/hg38.crx     same
//	s3://bucket/dir/hg38.crx  S3 bucket, key dir/hg38.crx
//	minio://bucket/hg38.crx   MinIO bucket, key hg38.crx
//	mem://hg38.crx            cfg.Memory, blob hg38.crx
func Resolve(ctx context.Context, location string, cfg Config) (blobstore.BlobStore, string, error) {
	if IsLocal(location) {
		p := LocalPath(location)
		return blobstore.NewLocalStore(filepath.Dir(p)), filepath.Base(p), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("parse %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "s3":
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("%q: want s3://bucket/key", location)
		}
		store, err := s3.New(ctx, u.Host,
			s3.WithRegion(cfg.S3Region),
			s3.WithEndpoint(cfg.S3Endpoint),
			s3.WithPathStyle(cfg.S3PathStyle),
		)
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	case "minio":
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("%q: want minio://bucket/key", location)
		}
		if cfg.MinIO.Endpoint == "" {
			return nil, "", fmt.Errorf("%q: minio endpoint not configured", location)
		}
		store, err := minio.New(cfg.MinIO, u.Host, "")
		if err != nil {
			return nil, "", err
		}
		return store, key, nil
	case "mem":
		if cfg.Memory == nil {
			return nil, "", fmt.Errorf("%q: no memory store configured", location)
		}
		return cfg.Memory, u.Host + u.Path, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
