package storage

import (
	"context"
	"fmt"
	"strings"

	"fleetevents/internal/infrastructure/storage/fs"
	"fleetevents/internal/infrastructure/storage/memory"
	"fleetevents/internal/infrastructure/storage/s3"
	"fleetevents/internal/ports"
)

type Options struct {
	Driver  string
	BaseDir string
	S3      s3.Config
}

// OpenBlobStore selects the byte backend by driver name. An empty driver means fs.
func OpenBlobStore(ctx context.Context, opts Options) (ports.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", fs.Driver:
		return fs.New(opts.BaseDir), nil
	case s3.Driver:
		return s3.New(ctx, opts.S3)
	case memory.Driver:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}
}
