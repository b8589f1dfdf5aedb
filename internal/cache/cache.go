// Package cache provides a thread-safe in-memory TTL cache used to memoize
// expensive upstream lookups (quotes, kline history, fund flows).
package cache

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the number of entries when no capacity is given.
const DefaultCapacity = 100

// entry is a stored value with its creation timestamp and TTL. An entry is
// expired when now - timestamp >= ttl.
type entry[V any] struct {
	value     V
	timestamp time.Time
	ttl       time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.timestamp) >= e.ttl
}

// Stats reports cache size and hit/miss counters.
type Stats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a bounded key/value store with per-entry expiry. Expiry is lazy:
// entries are removed when read after their TTL, and during insert-time
// eviction. There is no background sweeper. All operations are serialized by
// a single lock; reads take it too because an expired read mutates the map.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	capacity int
	hits     int64
	misses   int64
	now      func() time.Time
}

// New creates a cache bounded to `capacity` entries. A non-positive capacity
// falls back to DefaultCapacity.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		entries:  make(map[string]entry[V]),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the value for key. An expired entry is removed and counts as a
// miss; the check and removal happen atomically under the lock.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	if e.expired(c.now()) {
		delete(c.entries, key)
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return e.value, true
}

// Set stores a value with the given TTL. When the cache is at capacity and
// the key is new, expired entries are purged first; if the cache is still
// full, the single oldest entry by timestamp is evicted.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evict(now)
	}

	c.entries[key] = entry[V]{value: value, timestamp: now, ttl: ttl}
}

// Delete removes a key, reporting whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Clear removes all entries and resets the hit/miss counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// evict purges expired entries and, if the cache is still at capacity,
// removes the oldest entry by timestamp. Caller must hold the lock.
func (c *Cache[V]) evict(now time.Time) {
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) < c.capacity {
		return
	}

	oldestKey := ""
	var oldest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.timestamp.Before(oldest) {
			oldestKey = key
			oldest = e.timestamp
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
