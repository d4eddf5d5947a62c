package cache

import (
	"context"
	"sync"
	"time"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && !at.Before(e.expiresAt)
}

// SimpleCache is a map-backed Cache guarded by a RWMutex.
// Expired entries are dropped lazily on read or by PurgeExpired/RunJanitor.
type SimpleCache[K comparable, V any] struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[K]entry[V]
}

// Options controls construction of a SimpleCache.
type Options struct {
	// Now overrides the clock used for expiry; defaults to time.Now.
	Now func() time.Time
}

// NewSimpleCache constructs an empty SimpleCache.
func NewSimpleCache[K comparable, V any](opts Options) *SimpleCache[K, V] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SimpleCache[K, V]{
		now:   now,
		items: make(map[K]entry[V]),
	}
}

// Get implements Cache.Get.
func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(c.now()) {
		return zero, false
	}
	return e.value, true
}

// Set implements Cache.Set.
func (c *SimpleCache[K, V]) Set(key K, value V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.SetUntil(key, value, exp)
}

// SetUntil implements Cache.SetUntil. A zero expiresAt never expires.
func (c *SimpleCache[K, V]) SetUntil(key K, value V, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// Delete implements Cache.Delete.
func (c *SimpleCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len implements Cache.Len. It counts only non-expired entries.
func (c *SimpleCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at := c.now()
	count := 0
	for _, e := range c.items {
		if !e.expired(at) {
			count++
		}
	}
	return count
}

// PurgeExpired implements Cache.PurgeExpired.
func (c *SimpleCache[K, V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now()
	for k, e := range c.items {
		if e.expired(at) {
			delete(c.items, k)
		}
	}
}

// RunJanitor calls PurgeExpired every interval until ctx is done.
func (c *SimpleCache[K, V]) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PurgeExpired()
		}
	}
}

// Ensure SimpleCache implements Cache at compile time.
var _ Cache[string, struct{}] = (*SimpleCache[string, struct{}])(nil)
