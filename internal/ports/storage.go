package ports

import (
	"context"
	"errors"
	"io"

	"fleetevents/internal/domain/event"
)

var ErrBlobExists = errors.New("blob already exists")

// BlobStore is the byte-level backend behind AttachmentStore. Keys are slash separated
// and relative to the backend root.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Driver() string
}

type SaveRequest struct {
	Layout   event.Layout
	OwnerID  uint64
	FileName string
	Content  []byte
}

type StoredFile struct {
	StoragePath string
	URL         string
	Size        int64
}

// AttachmentStore places attachment bytes under the deterministic event layout and
// hands back the public URL.
type AttachmentStore interface {
	Save(ctx context.Context, req SaveRequest) (StoredFile, error)
	Delete(ctx context.Context, pathOrURL string) (bool, error)
}
