package core

import (
	"context"
	"io"
)

// Blob buckets.
const (
	BucketVideos    = "videos"
	BucketDocuments = "documents"
)

// BlobStore is an opaque object store that can hand out public URLs for stored objects.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	PublicURL(bucket, key string) string
}
