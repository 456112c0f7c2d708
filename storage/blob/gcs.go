package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

const uploadTimeout = 10 * time.Minute

type gcsBucket struct {
	name      string
	cdnDomain string
}

// GCS stores blobs in Google Cloud Storage. Each logical bucket maps to a GCS bucket, with an optional CDN domain.
type GCS struct {
	client        *storage.Client
	buckets       map[string]gcsBucket
	publicBaseURL string
	logger        core.Logger
}

var _ core.BlobStore = (*GCS)(nil)

// NewGCS connects to GCS with the default credentials. When conf.PublicBaseURL is set, the client talks to
// that endpoint unauthenticated (fake-gcs-server style emulator).
func NewGCS(ctx context.Context, conf core.StorageConfig, logger core.Logger, opts ...option.ClientOption) (*GCS, error) {
	base := strings.TrimRight(strings.TrimSpace(conf.PublicBaseURL), "/")
	if base != "" {
		opts = append(opts, option.WithoutAuthentication(), option.WithEndpoint(base+"/storage/v1/"))
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	logger.Info(fmt.Sprintf("blob store: gcs (videos: %s, documents: %s)", conf.VideoBucket, conf.DocumentBucket))
	return &GCS{
		client: client,
		buckets: map[string]gcsBucket{
			core.BucketVideos:    {name: conf.VideoBucket, cdnDomain: conf.VideoCDN},
			core.BucketDocuments: {name: conf.DocumentBucket, cdnDomain: conf.DocumentCDN},
		},
		publicBaseURL: base,
		logger:        logger,
	}, nil
}

func (s *GCS) bucket(name string) (gcsBucket, error) {
	b, ok := s.buckets[name]
	if !ok || b.name == "" {
		return gcsBucket{}, fmt.Errorf("unknown bucket: %s", name)
	}
	return b, nil
}

func (s *GCS) Upload(ctx context.Context, bucket, key string, r io.Reader, _ int64) error {
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	key = cleanKey(key)
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType(key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing object writer")
	}
	return nil
}

func (s *GCS) PublicURL(bucket, key string) string {
	key = cleanKey(key)
	b, err := s.bucket(bucket)
	if err != nil {
		return key
	}
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, b.name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}

func (s *GCS) Close() error {
	return s.client.Close()
}
