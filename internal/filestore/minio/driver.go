// Package minio provides a MinIO implementation of filestore.Store.
package minio

import (
	"context"
	"io"
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
	"github.com/koustreak/sqlreverse/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Driver is a MinIO implementation of filestore.Store scoped to one
// bucket and prefix. It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
	prefix string
}

// New connects to MinIO using the provided Config and returns a Driver.
// It calls Ping to validate the bucket before returning.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	if cfg.Bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "template store bucket is required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket, prefix: cfg.NormalizedPrefix()}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- filestore.Store implementation ---

// Ping checks that the configured bucket exists.
func (d *Driver) Ping(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.Newf(errs.ErrKindNotFound, "bucket %q does not exist", d.bucket)
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// List returns every object under the prefix. Directory markers are skipped.
func (d *Driver) List(ctx context.Context) ([]filestore.ObjectInfo, error) {
	listOpts := miniogo.ListObjectsOptions{
		Prefix:    d.prefix,
		Recursive: true,
	}

	var results []filestore.ObjectInfo
	for obj := range d.client.ListObjects(ctx, d.bucket, listOpts) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list objects")
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		results = append(results, filestore.ObjectInfo{
			Key:          strings.TrimPrefix(obj.Key, d.prefix),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return results, nil
}

// Open streams the object at key. The caller MUST close the reader.
func (d *Driver) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, d.prefix+key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	// GetObject is lazy; Stat surfaces NoSuchKey before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapError(err, "failed to stat object "+key)
	}

	return obj, nil
}
