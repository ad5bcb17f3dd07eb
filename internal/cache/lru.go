package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUWithTTL is a size-bounded LRU cache whose entries also expire after a
// fixed TTL. A zero TTL disables expiry. Safe for concurrent use.
type LRUWithTTL[K comparable, V any] struct {
	cache *lru.Cache[K, *ttlEntry[V]]
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time

	hits    atomic.Uint64
	misses  atomic.Uint64
	evicted atomic.Uint64
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewLRUWithTTL creates a cache holding at most size entries.
func NewLRUWithTTL[K comparable, V any](size int, ttl time.Duration) (*LRUWithTTL[K, V], error) {
	c, err := lru.New[K, *ttlEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &LRUWithTTL[K, V]{cache: c, ttl: ttl, now: time.Now}, nil
}

// Get returns the value for key if present and not expired. Expired
// entries are removed on access.
func (c *LRUWithTTL[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.RLock()
	entry, ok := c.cache.Get(key)
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.expired(entry) {
		c.mu.Lock()
		c.cache.Remove(key)
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRUWithTTL[K, V]) Set(key K, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	evicted := c.cache.Add(key, &ttlEntry[V]{value: value, expiresAt: expiresAt})
	c.mu.Unlock()

	if evicted {
		c.evicted.Add(1)
	}
}

// Delete removes key.
func (c *LRUWithTTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
}

// Len returns the number of entries, expired ones included.
func (c *LRUWithTTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.Len()
}

// Clear removes all entries.
func (c *LRUWithTTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

// CleanupExpired removes expired entries and returns how many were dropped.
// It is O(n) and meant for a periodic background sweep.
func (c *LRUWithTTL[K, V]) CleanupExpired() int {
	if c.ttl == 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.cache.Keys() {
		if entry, ok := c.cache.Peek(key); ok && c.expired(entry) {
			c.cache.Remove(key)
			removed++
		}
	}
	return removed
}

func (c *LRUWithTTL[K, V]) expired(e *ttlEntry[V]) bool {
	return c.ttl > 0 && c.now().After(e.expiresAt)
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Evicted uint64  `json:"evicted"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns current cache statistics.
func (c *LRUWithTTL[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	rate := 0.0
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Evicted: c.evicted.Load(),
		Size:    c.Len(),
		HitRate: rate,
	}
}
