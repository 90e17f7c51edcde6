package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/propertyhub/internal/reliability/circuitbreaker"
)

type fakeRemote struct {
	data  map[string][]byte
	err   error
	calls int
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.calls++
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeRemote) DeletePrefix(_ context.Context, prefix string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

func (f *fakeRemote) Incr(_ context.Context, key string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n, _ := strconv.ParseInt(string(f.data[key]), 10, 64)
	n++
	f.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func TestRedisInventoryCacheRoundTrip(t *testing.T) {
	remote := &fakeRemote{data: map[string][]byte{}}
	c := newRedisInventoryCache(remote, nil, nil)
	ctx := context.Background()

	c.Set(ctx, "inventory:all", []byte(`[]`), time.Minute)
	v, ok := c.Get(ctx, "inventory:all")
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	c.Invalidate(ctx, "inventory:")
	_, ok = c.Get(ctx, "inventory:all")
	assert.False(t, ok)
}

func TestRedisInventoryCacheBreakerShortCircuits(t *testing.T) {
	remote := &fakeRemote{data: map[string][]byte{}, err: errors.New("connection refused")}
	breaker := circuitbreaker.NewCircuitBreaker(2, 1, time.Hour)
	c := newRedisInventoryCache(remote, breaker, nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	before := remote.calls
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Equal(t, before, remote.calls)
}

func TestMemoryInventoryCache(t *testing.T) {
	c := NewMemoryInventoryCache()
	ctx := context.Background()

	c.Set(ctx, "inventory:all", []byte("x"), time.Minute)
	c.Set(ctx, "other", []byte("y"), time.Minute)
	c.Invalidate(ctx, "inventory:")

	_, ok := c.Get(ctx, "inventory:all")
	assert.False(t, ok)
	v, ok := c.Get(ctx, "other")
	assert.True(t, ok)
	assert.Equal(t, "y", string(v))
}

func TestInventoryCacheGenerationAdvancesOnInvalidate(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{data: map[string][]byte{}}
	caches := map[string]interface {
		Invalidate(ctx context.Context, prefix string)
		Generation(ctx context.Context) (uint64, bool)
	}{
		"redis":  newRedisInventoryCache(remote, nil, nil),
		"memory": NewMemoryInventoryCache(),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			before, ok := c.Generation(ctx)
			assert.True(t, ok)
			c.Invalidate(ctx, "inventory:")
			after, ok := c.Generation(ctx)
			assert.True(t, ok)
			assert.Equal(t, before+1, after)
		})
	}
	_, kept := remote.data[generationKey]
	assert.True(t, kept, "invalidating the prefix keeps the counter")
}

func TestRedisInventoryCacheGenerationUnavailable(t *testing.T) {
	remote := &fakeRemote{data: map[string][]byte{}, err: errors.New("connection refused")}
	c := newRedisInventoryCache(remote, nil, nil)

	_, ok := c.Generation(context.Background())
	assert.False(t, ok)
}
