package domain

import (
	"context"
	"time"
)

// InventoryCache holds serialized read models. It is optional: failures are
// logged by the implementation and surface as misses.
type InventoryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, prefix string)
	// Generation is bumped by every Invalidate. Readers embed it in their keys
	// so an entry built before an invalidation is never read afterwards. ok is
	// false when it cannot be read; callers should then not cache.
	Generation(ctx context.Context) (gen uint64, ok bool)
}
