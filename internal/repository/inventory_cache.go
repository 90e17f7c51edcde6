package repository

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/yourorg/propertyhub/internal/infrastructure/redis"
	"github.com/yourorg/propertyhub/internal/observability/metrics"
	"github.com/yourorg/propertyhub/internal/reliability/circuitbreaker"
	"github.com/yourorg/propertyhub/pkg/cache"
)

// remoteStore is the subset of the Redis client the cache needs.
type remoteStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// generationKey sits outside every invalidated prefix.
const generationKey = "cache:generation"

// RedisInventoryCache implements domain.InventoryCache on Redis behind a
// circuit breaker. While the breaker is open every call is a miss.
type RedisInventoryCache struct {
	store   remoteStore
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewRedisInventoryCache wraps client with breaker
func NewRedisInventoryCache(client *redis.Client, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *RedisInventoryCache {
	return newRedisInventoryCache(client, breaker, logger)
}

func newRedisInventoryCache(store remoteStore, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *RedisInventoryCache {
	if logger == nil {
		logger = slog.Default()
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
	}
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("inventory cache breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &RedisInventoryCache{store: store, breaker: breaker, logger: logger}
}

func (c *RedisInventoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.breaker.Allow() {
		metrics.ObserveCacheLookup("redis", false)
		return nil, false
	}
	val, ok, err := c.store.Get(ctx, key)
	c.breaker.Record(err)
	if err != nil {
		c.logger.Warn("inventory cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		ok = false
	}
	metrics.ObserveCacheLookup("redis", ok)
	return val, ok
}

func (c *RedisInventoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.breaker.Allow() {
		return
	}
	err := c.store.Set(ctx, key, value, ttl)
	c.breaker.Record(err)
	if err != nil {
		c.logger.Warn("inventory cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate bumps the generation, then deletes every key under prefix. It
// is attempted even while the breaker is open so a recovered Redis never
// serves data older than a write.
func (c *RedisInventoryCache) Invalidate(ctx context.Context, prefix string) {
	_, err := c.store.Incr(ctx, generationKey)
	c.breaker.Record(err)
	if err != nil {
		c.logger.Warn("inventory cache generation bump failed", slog.String("error", err.Error()))
	}
	err = c.store.DeletePrefix(ctx, prefix)
	c.breaker.Record(err)
	if err != nil {
		c.logger.Warn("inventory cache invalidate failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
}

// Generation reads the shared counter. A missing key is generation 0.
func (c *RedisInventoryCache) Generation(ctx context.Context) (uint64, bool) {
	if !c.breaker.Allow() {
		return 0, false
	}
	raw, ok, err := c.store.Get(ctx, generationKey)
	c.breaker.Record(err)
	if err != nil {
		c.logger.Warn("inventory cache generation read failed", slog.String("error", err.Error()))
		return 0, false
	}
	if !ok {
		return 0, true
	}
	gen, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		c.logger.Warn("inventory cache generation is not a counter", slog.String("value", string(raw)))
		return 0, false
	}
	return gen, true
}

// MemoryInventoryCache implements domain.InventoryCache in process.
type MemoryInventoryCache struct {
	cache *cache.Cache
	gen   atomic.Uint64
}

// NewMemoryInventoryCache creates an empty in-process cache
func NewMemoryInventoryCache() *MemoryInventoryCache {
	return &MemoryInventoryCache{cache: cache.New()}
}

func (c *MemoryInventoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.cache.Get(key)
	metrics.ObserveCacheLookup("memory", ok)
	return val, ok
}

func (c *MemoryInventoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

func (c *MemoryInventoryCache) Invalidate(_ context.Context, prefix string) {
	c.gen.Add(1)
	c.cache.Invalidate(prefix)
}

func (c *MemoryInventoryCache) Generation(context.Context) (uint64, bool) {
	return c.gen.Load(), true
}
