package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// LocalRoute is the URL prefix the API serves the local store under.
const LocalRoute = "/files"

// Local stores blobs under a directory, one sub-directory per bucket.
type Local struct {
	dir     string
	baseURL string
}

var _ core.BlobStore = (*Local)(nil)

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Local) Dir() string {
	return s.dir
}

func (s *Local) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	if bucket != core.BucketVideos && bucket != core.BucketDocuments {
		return fmt.Errorf("unknown bucket: %s", bucket)
	}
	dst := filepath.Join(s.dir, bucket, filepath.FromSlash(cleanKey(key)))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating object dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "creating object file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, readerWithContext{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "writing object")
	}
	if size > 0 && n != size {
		return fmt.Errorf("short write: got %d bytes, want %d", n, size)
	}
	return errors.Wrap(os.Rename(tmp.Name(), dst), "moving object")
}

func (s *Local) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s%s/%s/%s", s.baseURL, LocalRoute, bucket, cleanKey(key))
}

// readerWithContext stops a copy once ctx is done.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
