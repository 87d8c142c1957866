// Package cache provides a small LRU cache with an eviction hook.
//
// The postfx effect uses it to memoize bind groups keyed by
// (pipeline, texture). Bind groups are GPU resources, so eviction must
// be observable: register a [WithOnEvict] hook to destroy the evicted
// resource on the adapter.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the default maximum number of entries.
const DefaultCapacity = 64

// Option configures an LRU cache during creation.
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict registers a hook invoked whenever an entry leaves the
// cache through capacity eviction, Delete, or Purge. The hook runs with
// the cache lock held; keep it fast and never call back into the cache.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// LRU is a mutex-guarded least-recently-used cache.
//
// It is safe for concurrent use, though the intended consumer (the
// render goroutine's bind-group memoization) is single-threaded; a
// single mutex therefore beats sharding here.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	head     *lruNode[K, V] // most recently used
	tail     *lruNode[K, V] // least recently used
	capacity int
	onEvict  func(K, V)

	// Statistics (atomic for lock-free reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// lruNode is an intrusive doubly-linked list node holding one entry.
type lruNode[K comparable, V any] struct {
	key        K
	value      V
	prev, next *lruNode[K, V]
}

// Stats holds cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates an LRU cache with the given capacity.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &LRU[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached value by key.
// Returns (value, true) if found, (zero, false) otherwise.
// On cache hit, the entry is moved to the front of the LRU list.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.moveToFront(node)
	c.hits.Add(1)
	return node.value, true
}

// GetOrCreate returns a cached value or creates it using the provided
// function. The create function is called with the lock held to prevent
// duplicate creation; keep it fast.
//
// If create returns an error, nothing is cached and the error is
// returned as-is.
func (c *LRU[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.moveToFront(node)
		c.hits.Add(1)
		return node.value, nil
	}
	c.misses.Add(1)

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.insert(key, value)
	return value, nil
}

// Set stores a value, evicting the oldest entry if at capacity.
// The value is stored as-is (not copied).
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		node.value = value
		c.moveToFront(node)
		return
	}
	c.insert(key, value)
}

// Delete removes an entry, invoking the eviction hook.
// Returns true if the entry was found and removed.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(node)
	if c.onEvict != nil {
		c.onEvict(node.key, node.value)
	}
	return true
}

// DeleteFunc removes every entry for which pred returns true, invoking
// the eviction hook for each. Returns the number of entries removed.
//
// The effect uses this to drop all bind groups tied to a pipeline when
// that pipeline is released.
func (c *LRU[K, V]) DeleteFunc(pred func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for node := c.tail; node != nil; {
		prev := node.prev
		if pred(node.key, node.value) {
			c.remove(node)
			if c.onEvict != nil {
				c.onEvict(node.key, node.value)
			}
			removed++
		}
		node = prev
	}
	return removed
}

// Purge removes all entries, invoking the eviction hook for each.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.tail; node != nil; node = node.prev {
		if c.onEvict != nil {
			c.onEvict(node.key, node.value)
		}
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.head = nil
	c.tail = nil
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns current cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// insert adds a new entry at the front, evicting the oldest if needed.
// The caller must hold c.mu.
func (c *LRU[K, V]) insert(key K, value V) {
	for len(c.entries) >= c.capacity {
		oldest := c.tail
		if oldest == nil {
			break
		}
		c.remove(oldest)
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(oldest.key, oldest.value)
		}
	}

	node := &lruNode[K, V]{key: key, value: value}
	c.pushFront(node)
	c.entries[key] = node
}

// pushFront links node as the new head. The caller must hold c.mu.
func (c *LRU[K, V]) pushFront(node *lruNode[K, V]) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

// remove unlinks node and drops it from the map. The caller must hold c.mu.
func (c *LRU[K, V]) remove(node *lruNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	delete(c.entries, node.key)
}

// moveToFront marks node as most recently used. The caller must hold c.mu.
func (c *LRU[K, V]) moveToFront(node *lruNode[K, V]) {
	if c.head == node {
		return
	}
	// Unlink without touching the map.
	if node.prev != nil {
		node.prev.next = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	c.pushFront(node)
}
