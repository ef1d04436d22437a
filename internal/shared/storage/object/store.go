package object

import (
	"context"
	"io"
)

// ObjectStore abstracts where uploaded files live (S3 in deployments,
// local disk in dev). Save reports the detected MIME type and byte count
// alongside the key so callers persist what was actually stored, not what
// the client claimed.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
