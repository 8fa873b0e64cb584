// Package fs stores attachment bytes on the local filesystem below a configured root.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"fleetevents/internal/ports"
)

const Driver = "fs"

var ErrRootNotConfigured = errors.New("storage base directory is not configured")

// Store maps keys to files under root. Writes go to a temp file in the target
// directory and are renamed into place, so readers never see a partial file.
type Store struct {
	root string
}

var _ ports.BlobStore = (*Store)(nil)

// New does not touch the disk; directories are created on first Put.
func New(root string) *Store {
	return &Store{root: strings.TrimSpace(root)}
}

func (s *Store) Driver() string { return Driver }

func (s *Store) Root() string { return s.root }

// sanitizeKey forbids traversal and absolute keys.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid absolute key")
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (string, error) {
	if s.root == "" {
		return "", ErrRootNotConfigured
	}
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ string) (int64, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return 0, fmt.Errorf("%w: %s", ports.ErrBlobExists, key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	size, copyErr := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if copyErr != nil {
		_ = tmp.Close()
		return 0, copyErr
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return 0, err
	}
	return size, nil
}

// Delete reports false without error when the file is already gone.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	dataPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(dataPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
