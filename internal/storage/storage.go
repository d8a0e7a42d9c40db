package storage

import (
	"context"
	"io"
)

// Uploader archives a copy of an artifact to durable object storage.
// Archiving is best-effort plumbing around the pipeline, never a failure
// condition for it.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
