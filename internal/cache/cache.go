package cache

import (
	"context"
	"time"
)

// Cache memoizes JSON-serializable values with a per-entry ttl. An entry
// older than its ttl is never observably returned: lookups treat it as a
// miss. Implementations must be safe for concurrent use.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
