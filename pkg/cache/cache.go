// ABOUTME: Bounded key/value cache with insertion-order eviction
// ABOUTME: Used to memoize rendered beat buffers
package cache

import "sync"

// FixedSize keeps at most capacity entries. When full, the entry that was
// inserted first is evicted. Updating a key keeps its original position.
type FixedSize[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[K]V
	order    []K
	hits     uint64
	misses   uint64
}

// NewFixedSize creates a cache. Capacity below 1 is treated as 1.
func NewFixedSize[K comparable, V any](capacity int) *FixedSize[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &FixedSize[K, V]{
		capacity: capacity,
		entries:  make(map[K]V, capacity),
		order:    make([]K, 0, capacity),
	}
}

// Get returns the value for key. Reads never change eviction order.
func (c *FixedSize[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores a value, evicting the oldest insertion if over capacity
func (c *FixedSize[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = value
		return
	}

	c.insertLocked(key, value)
}

func (c *FixedSize[K, V]) insertLocked(key K, value V) {
	c.entries[key] = value
	c.order = append(c.order, key)
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// GetOrCreate returns the cached value or builds, stores and returns a new one.
// build runs without the lock held, so concurrent misses may build twice;
// the first stored value wins.
func (c *FixedSize[K, V]) GetOrCreate(key K, build func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := build()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.insertLocked(key, v)
	return v
}

func (c *FixedSize[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *FixedSize[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and resets the counters
func (c *FixedSize[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V, c.capacity)
	c.order = c.order[:0]
	c.hits, c.misses = 0, 0
}

// Stats returns hit and miss counts since creation or the last Clear
func (c *FixedSize[K, V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
