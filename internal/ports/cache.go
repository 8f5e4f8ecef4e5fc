package ports

import (
	"context"
	"time"
)

// Cache defines a generic key-value capability for usecases, used by the
// permission resolver for org default settings. Adapters may be backed by
// SQLite/Redis or other stores; tests substitute a deterministic map.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
