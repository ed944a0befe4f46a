/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

type cacheEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUCache represents an LRU cache with eviction mechanism and Prometheus metrics.
type LRUCache[K comparable, V any] struct {
	maxEntries int
	defaultTTL time.Duration

	mu      sync.Mutex
	lruList *list.List
	cache   map[K]*list.Element // value is a lruList element

	loads singleFlightGroup[K, V]

	metricsCollector MetricsCollector
}

// Options represents options for the cache.
type Options struct {
	// DefaultTTL is the default TTL for the cache entries. Zero means no expiration.
	// Expired entries are removed lazily, when they are accessed.
	DefaultTTL time.Duration
}

// New creates a new LRUCache with the provided maximum number of entries and metrics collector.
// Metrics collector can be nil, in this case, metrics will be disabled.
func New[K comparable, V any](maxEntries int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](maxEntries, metricsCollector, Options{})
}

// NewWithOpts creates a new LRUCache with the provided maximum number of entries, metrics collector, and options.
func NewWithOpts[K comparable, V any](maxEntries int, metricsCollector MetricsCollector, opts Options) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0")
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("defaultTTL must be greater or equal to 0 (no expiration)")
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	return &LRUCache[K, V]{
		maxEntries:       maxEntries,
		defaultTTL:       opts.DefaultTTL,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element),
		metricsCollector: metricsCollector,
	}, nil
}

// Get returns a value from the cache by the provided key.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Add adds a value to the cache with the default TTL.
// If the cache is full, the least recently used entry is evicted.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.AddWithTTL(key, value, c.defaultTTL)
}

// AddWithTTL adds a value to the cache with the provided TTL.
func (c *LRUCache[K, V]) AddWithTTL(key K, value V, ttl time.Duration) {
	expiresAt := expirationTime(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value = &cacheEntry[K, V]{key: key, value: value, expiresAt: expiresAt}
		return
	}
	c.addNew(key, value, expiresAt)
}

// GetOrAdd returns a value from the cache by the provided key.
// If the key does not exist, the value returned by valueProvider is added.
// valueProvider is called under the cache lock, so it must be fast and must not use the cache.
func (c *LRUCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, exists = c.get(key); exists {
		return value, true
	}
	value = valueProvider()
	c.addNew(key, value, expirationTime(c.defaultTTL))
	return value, false
}

// GetOrLoad returns a value from the cache by the provided key.
// If the key does not exist, load is called outside of the cache lock and its result is cached on success.
// Concurrent calls for the same missing key share a single load call.
// A panic in load is propagated to the calling goroutine, other waiters receive *PanicError.
func (c *LRUCache[K, V]) GetOrLoad(key K, load func(key K) (V, error)) (value V, err error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	return c.loads.Do(key, func() (V, error) {
		// Another caller may have finished loading between Get and Do.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, loadErr := load(key)
		if loadErr != nil {
			return v, loadErr
		}
		c.Add(key, v)
		return v, nil
	})
}

// Remove removes a value from the cache by the provided key.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}
	c.lruList.Remove(elem)
	delete(c.cache, key)
	c.metricsCollector.SetAmount(len(c.cache))
	return true
}

// Purge clears the cache. Removed entries are not counted as evictions.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[K]*list.Element)
	c.lruList.Init()
	c.metricsCollector.SetAmount(0)
}

// Len returns the number of items in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	elem, hit := c.cache[key]
	if !hit {
		c.metricsCollector.IncMisses()
		return value, false
	}
	entry := elem.Value.(*cacheEntry[K, V])
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		c.lruList.Remove(elem)
		delete(c.cache, key)
		c.metricsCollector.SetAmount(len(c.cache))
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.metricsCollector.IncHits()
	return entry.value, true
}

func (c *LRUCache[K, V]) addNew(key K, value V, expiresAt time.Time) {
	c.cache[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	if len(c.cache) > c.maxEntries {
		if oldest := c.lruList.Back(); oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry[K, V]).key)
			c.metricsCollector.AddEvictions(1)
		}
	}
	c.metricsCollector.SetAmount(len(c.cache))
}

func expirationTime(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
