// Package cache implements the shared, cross-session caches spec §4.G
// names: prepared-statement, query-plan, schema, row-description, and
// boolean-column caches, each with its own key, capacity, and
// invalidation rule. All of them wrap hashicorp/golang-lru/v2, the LRU
// library already present in the dependency pack (via the zerostate
// example's closure), rather than a hand-rolled list+map.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry pairs a cached value with the time it was inserted, so callers
// that need a TTL (prepared-statement, row-description) can evict
// stale hits on read without a background sweeper goroutine.
type entry[V any] struct {
	value V
	at    time.Time
}

// TTLCache is a fixed-capacity LRU with an optional time-to-live.
// A zero ttl disables time-based eviction and behaves like a plain LRU
// (used by the query-plan cache, which spec §4.G gives no TTL).
type TTLCache[K comparable, V any] struct {
	mu   sync.Mutex
	lru  *lru.Cache[K, entry[V]]
	ttl  time.Duration
	now  func() time.Time
}

func NewTTLCache[K comparable, V any](capacity int, ttl time.Duration) *TTLCache[K, V] {
	l, err := lru.New[K, entry[V]](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0, which is a
		// programmer error in one of this package's constructors.
		panic(err)
	}
	return &TTLCache[K, V]{lru: l, ttl: ttl, now: time.Now}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.at) > c.ttl {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry[V]{value: value, at: c.now()})
}

// Remove evicts one key, used by callers invalidating a single
// statement or row-description entry precisely instead of clearing
// everything.
func (c *TTLCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Purge clears the whole cache, used for the "any DDL" invalidation
// rule spec §4.G gives the prepared-statement and query-plan caches.
func (c *TTLCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
