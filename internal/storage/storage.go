package storage

import (
	"context"
	"io"
	"time"
)

// Uploader persists immutable artifacts: archived call transcripts and
// uploaded context files. Upload returns the stored path of the object,
// a gs:// URL on GCS or a filesystem path locally.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// Signer mints short-lived download links for stored objects. Backends
// without signing (local disk) simply do not implement it.
type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}
