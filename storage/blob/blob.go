// Package blob provides the core.BlobStore implementations: Google Cloud Storage and the local filesystem.
package blob

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// Open returns the blob store selected by conf.Storage.Backend.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (core.BlobStore, error) {
	switch conf.Storage.Backend {
	case "gcs":
		return NewGCS(ctx, conf.Storage, logger)
	case "local", "":
		return NewLocal(conf.Storage.LocalDir, localBaseURL(conf))
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", conf.Storage.Backend)
	}
}

// localBaseURL defaults to the API address, which serves the local store under LocalRoute.
// Stored URLs must be absolute to pass the url validation of blocks and downloadables.
func localBaseURL(conf *core.Config) string {
	if conf.Storage.PublicBaseURL != "" {
		return conf.Storage.PublicBaseURL
	}
	addr := conf.Server.Address
	if strings.HasPrefix(addr, ":") {
		addr = conf.Server.Host + addr
	}
	return "http://" + addr
}

func cleanKey(key string) string {
	return strings.TrimLeft(path.Clean("/"+strings.TrimSpace(key)), "/")
}

func contentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
