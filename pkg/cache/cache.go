// Package cache provides a thread-safe LRU cache of parsed formulas.
//
// The engine uses it when caching is enabled, so that a formula text
// evaluated repeatedly against different variables is parsed once.
// Parse failures are never cached.
//
// # Example
//
//	c := cache.New(512, cache.WithMetrics(m))
//	expr, err := c.GetOrParse(cache.Key{Source: "SUM(A)*2"}, parse)
package cache

import (
	"container/list"
	"sync"

	"github.com/sandrolain/xlformula/pkg/metrics"
	"github.com/sandrolain/xlformula/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// Key identifies a parsed formula. The same text parsed under a
// different depth limit is a different entry.
type Key struct {
	Source   string
	MaxDepth int
}

type entry struct {
	key  Key
	expr *types.Expression
}

// Cache is a least-recently-used cache of parsed expressions.
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
	metrics  *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records lookups as hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a cache holding at most capacity expressions.
func New(capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element, capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the expression stored under key and marks it most
// recently used.
func (c *Cache) Get(key Key) (*types.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.metrics.CacheMiss()
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.metrics.CacheHit()
	return el.Value.(*entry).expr, true
}

// Put stores expr under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache) Put(key Key, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		if oldest := c.ll.Back(); oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, expr: expr})
}

// GetOrParse returns the cached expression for key, or calls parse and
// caches a successful result. Two goroutines missing on the same key may
// both parse; the later result wins.
func (c *Cache) GetOrParse(key Key, parse func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(key); ok {
		return expr, nil
	}
	expr, err := parse()
	if err != nil {
		return nil, err
	}
	c.Put(key, expr)
	return expr, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }

// Remove drops key from the cache.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
}
