// Package cache memoises search results per (query, fields, options) with a
// TTL and a hard entry cap.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

type Stats struct {
	Size    int     `json:"size" yaml:"size"`
	Hits    int64   `json:"hits" yaml:"hits"`
	Misses  int64   `json:"misses" yaml:"misses"`
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

type entry[V any] struct {
	value   V
	created time.Time
}

// Cache is a TTL and capacity bounded map. When an insert of a new key finds
// the cache full, the oldest half of the entries by creation time is purged
// first. Expired entries are dropped lazily on lookup.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	group      singleflight.Group
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New returns an empty cache. m may be nil.
func New[V any](ttl time.Duration, maxEntries int, m *metrics.Metrics) *Cache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache"),
	}
}

// Key hashes the query, the ordered field list and the JSON form of opts.
func Key(query string, fields []string, opts any) string {
	encoded, err := json.Marshal(opts)
	if err != nil {
		encoded = []byte(err.Error())
	}
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(fields, ",")))
	h.Write([]byte{0})
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the value stored under key if it is younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lookup(key)
	if ok {
		c.hits++
		c.metrics.CacheHit()
	} else {
		c.misses++
		c.metrics.CacheMiss()
	}
	return v, ok
}

// lookup must be called with mu held. It does not count hits or misses.
func (c *Cache[V]) lookup(key string) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.created) >= c.ttl {
		delete(c.entries, key)
		c.metrics.CacheEvicted("ttl", 1)
		c.metrics.CacheSize(len(c.entries))
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = entry[V]{value: value, created: c.now()}
	c.metrics.CacheSize(len(c.entries))
}

// evictOldest drops the oldest half of the entries, at least one.
func (c *Cache[V]) evictOldest() {
	type aged struct {
		key     string
		created time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.created})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].created.Equal(all[j].created) {
			return all[i].created.Before(all[j].created)
		}
		return all[i].key < all[j].key
	})
	victims := all[:min(max(c.maxEntries/2, 1), len(all))]
	for _, a := range victims {
		delete(c.entries, a.key)
	}
	c.metrics.CacheEvicted("capacity", len(victims))
	c.logger.Debug("cache capacity eviction", "evicted", len(victims), "remaining", len(c.entries))
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Concurrent misses on the same key share one computation. The bool reports
// a cache hit.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		v, ok := c.lookup(key)
		c.mu.Unlock()
		if ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return val.(V), false, nil
}

// Clear empties the cache and resets the hit and miss counters.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.hits, c.misses = 0, 0
	c.metrics.CacheSize(0)
}

// Purge drops every entry but keeps the hit and miss counters.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.metrics.CacheSize(0)
}

// Prune removes entries older than maxAge and returns how many were removed.
func (c *Cache[V]) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.created) > maxAge {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.metrics.CacheEvicted("prune", removed)
		c.metrics.CacheSize(len(c.entries))
	}
	return removed
}

func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
