// Package storage places event attachment files under the event layout and resolves
// their public URLs. Byte storage is delegated to a ports.BlobStore driver.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
)

const defaultWriteTimeout = 30 * time.Second

type AttachmentStore struct {
	blobs        ports.BlobStore
	serverURL    string
	writeTimeout time.Duration
	newName      func() string
}

var _ ports.AttachmentStore = (*AttachmentStore)(nil)

func NewAttachmentStore(blobs ports.BlobStore, serverURL string, writeTimeout time.Duration) *AttachmentStore {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &AttachmentStore{
		blobs:        blobs,
		serverURL:    strings.TrimSpace(serverURL),
		writeTimeout: writeTimeout,
		newName:      uuid.NewString,
	}
}

// Save writes req.Content under a generated name that keeps the original extension.
// The client-supplied name never becomes part of the key.
func (s *AttachmentStore) Save(ctx context.Context, req ports.SaveRequest) (ports.StoredFile, error) {
	if s == nil || s.blobs == nil {
		return ports.StoredFile{}, errs.IO(nil, "attachment storage is not configured")
	}
	if err := req.Layout.Validate(); err != nil {
		return ports.StoredFile{}, errs.Validation("%v", err)
	}
	if req.OwnerID == 0 {
		return ports.StoredFile{}, errs.Validation("attachment owner id is required")
	}
	name := event.FileKey(req.FileName)
	if name == "" || name == "." {
		return ports.StoredFile{}, errs.Validation("%v", event.ErrFileNameRequired)
	}
	if req.Content == nil {
		return ports.StoredFile{}, errs.Validation("%v: %s", event.ErrFileContentMissing, req.FileName)
	}

	ext := strings.ToLower(path.Ext(name))
	key := req.Layout.Key(req.OwnerID, s.newName()+ext)

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	size, err := s.blobs.Put(writeCtx, key, bytes.NewReader(req.Content), mime.TypeByExtension(ext))
	if err != nil {
		return ports.StoredFile{}, errs.IO(err, fmt.Sprintf("write attachment %s", req.FileName))
	}

	logging.Info(ctx, "attachment stored",
		slog.String("component", "storage"),
		slog.String("driver", s.blobs.Driver()),
		slog.String("key", key),
		slog.Int64("bytes", size),
	)
	return ports.StoredFile{
		StoragePath: key,
		URL:         event.PublicURL(s.serverURL, key),
		Size:        size,
	}, nil
}

// Delete accepts a storage path or a public URL. A missing file reports false, nil.
func (s *AttachmentStore) Delete(ctx context.Context, pathOrURL string) (bool, error) {
	if s == nil || s.blobs == nil {
		return false, errs.IO(nil, "attachment storage is not configured")
	}
	key := event.KeyFromReference(s.serverURL, pathOrURL)
	if key == "" {
		return false, nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	deleted, err := s.blobs.Delete(writeCtx, key)
	if err != nil {
		return false, errs.IO(err, fmt.Sprintf("delete attachment %s", key))
	}
	return deleted, nil
}
