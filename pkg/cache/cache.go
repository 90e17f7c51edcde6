package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry represents a cached value with expiration
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// Cache is an in-process byte cache with TTL. It backs the inventory cache
// when no Redis is configured.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Entry
	now   func() time.Time
}

// New creates a new cache
func New() *Cache {
	return &Cache{items: map[string]*Entry{}, now: time.Now}
}

// Set stores a copy of value with the given TTL
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &Entry{
		Value:     append([]byte(nil), value...),
		ExpiresAt: c.now().Add(ttl),
	}
}

// Get retrieves a value if it hasn't expired. Expired entries are dropped.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.items[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}
	if !c.now().After(entry.ExpiresAt) {
		return entry.Value, true
	}

	// a Set may have replaced the entry since the read lock was released
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if c.now().After(cur.ExpiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return cur.Value, true
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Invalidate removes all items matching a prefix
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
