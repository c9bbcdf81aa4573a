// Package filestore defines the read-only object store templates can be
// fetched from before a run.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	cfg.Bucket, cfg.Prefix = "codegen", "templates/rust/"
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objs, err := store.List(ctx)
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is a bucket/prefix scoped, read-only view of an object store.
type Store interface {
	// Ping verifies the bucket is reachable with the configured credentials.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// List returns every object under the configured prefix, recursively.
	// Keys are relative to the prefix.
	List(ctx context.Context) ([]ObjectInfo, error)

	// Open streams the object at key (relative to the prefix).
	// The caller MUST close the returned reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	// Key is the object path relative to the store prefix (e.g. "rust/base.tmpl").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// LastModified is when the object was last written.
	LastModified time.Time
}
