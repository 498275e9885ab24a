// Package cache provides the bounded LRU cache used to keep decoded page
// rasters across zoom changes.
//
// The cache is an explicit, constructed component with a defined lifetime:
// create one with New, pass it by reference to consumers, and Clear it when
// the owning view goes away. There is deliberately no package-level instance.
package cache

import (
	"math"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of cached entries.
const DefaultCapacity = 32

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a mutex-guarded LRU cache with O(1) lookup and eviction
// (hash index + doubly-linked recency list).
//
// Thread safety: Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[K, V]
	lru      lruList[K]
	capacity int

	// Statistics (atomic for lock-free reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache retaining at most capacity entries.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		entries:  make(map[K]*entry[K, V]),
		capacity: capacity,
	}
}

// Get returns the cached value for key, marking it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.node)
	v := e.value
	c.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores a value, evicting the least recently used entry when the cache
// is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.lru.MoveToFront(e.node)
		return
	}
	if len(c.entries) >= c.capacity {
		if oldest, ok := c.lru.RemoveOldest(); ok {
			delete(c.entries, oldest)
			c.evictions.Add(1)
		}
	}
	c.entries[key] = &entry[K, V]{
		value: value,
		node:  c.lru.PushFront(key),
	}
}

// Delete removes an entry if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.lru.Remove(e.node)
		delete(c.entries, key)
	}
}

// Len returns the current number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Statistics are kept; use ResetStats separately.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.lru.Clear()
}

// Stats returns the hit/miss/eviction counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// ResetStats zeroes the counters.
func (c *Cache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// zoomBucketStep is the granularity of zoom quantization. Rasters rendered
// at 1.62x and 1.55x land in the same bucket, so near-identical zoom levels
// share one cache entry.
const zoomBucketStep = 0.25

// ZoomBucket quantizes a zoom factor into a cache-key bucket.
func ZoomBucket(zoom float64) int {
	if zoom < zoomBucketStep {
		zoom = zoomBucketStep
	}
	return int(math.Round(zoom / zoomBucketStep))
}

// RenderKey identifies one decoded raster: which source it came from and at
// which quantized zoom level it was rendered.
type RenderKey struct {
	Source     string
	ZoomBucket int
}

// KeyFor builds the cache key for a source identity at a zoom factor.
func KeyFor(source string, zoom float64) RenderKey {
	return RenderKey{Source: source, ZoomBucket: ZoomBucket(zoom)}
}
