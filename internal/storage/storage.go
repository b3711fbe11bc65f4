// Package storage abstracts the object store holding external test data packs.
package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the minimal object storage operations the judge
// needs. It is intentionally small so MinIO and AWS-S3 implementations stay
// interchangeable.
type ObjectStorage interface {
	// GetObject opens a reader for an object. Caller must close it.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// StatObject returns object metadata, used to validate pack size.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// ObjectStat contains object metadata.
type ObjectStat struct {
	SizeBytes int64
	ETag      string
}
