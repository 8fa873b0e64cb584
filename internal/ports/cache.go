package ports

import (
	"context"
	"time"
)

// Cache is a key-value capability for usecases. Adapters backed by the relational store
// join the transaction found in ctx, so a Set inside UnitOfWork.WithTx commits or rolls
// back together with the rest of the work.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
