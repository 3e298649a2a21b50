package cache

import "sync"

// Cache is a thread-safe LRU cache. When it holds more than its limit the
// least recently used entries are evicted.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	order   lruList[K, V]
	limit   int
	onEvict func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache holding at most limit entries. A limit of 0 means
// unlimited. onEvict may be nil.
func New[K comparable, V any](limit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		limit:   limit,
		onEvict: onEvict,
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(node)
	return node.value, true
}

// Set stores value under key. A value already stored under key is passed
// to the eviction hook.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		old := node.value
		node.value = value
		c.order.moveToFront(node)
		c.evicted(key, old)
		return
	}
	c.insert(key, value)
}

// GetOrCreate returns the value stored under key, calling create to make
// it on a miss. A failed create stores nothing.
//
// create is called with the lock held, so concurrent callers never create
// the same key twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits++
		c.order.moveToFront(node)
		return node.value, nil
	}
	c.misses++
	value, err := create()
	if err != nil {
		return value, err
	}
	c.insert(key, value)
	return value, nil
}

// Delete removes key from the cache and passes its value to the eviction
// hook. It reports whether key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(node)
	return true
}

// Purge removes every entry, oldest first.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.order.oldest(); node != nil; node = c.order.oldest() {
		c.remove(node)
	}
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// insert adds a new entry and trims the cache to its limit.
// Caller must hold c.mu.
func (c *Cache[K, V]) insert(key K, value V) {
	node := &lruNode[K, V]{key: key, value: value}
	c.entries[key] = node
	c.order.pushFront(node)
	for c.limit > 0 && len(c.entries) > c.limit {
		c.evictions++
		c.remove(c.order.oldest())
	}
}

// Caller must hold c.mu.
func (c *Cache[K, V]) remove(node *lruNode[K, V]) {
	c.order.unlink(node)
	delete(c.entries, node.key)
	c.evicted(node.key, node.value)
}

func (c *Cache[K, V]) evicted(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit, 0 for unlimited.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits over all lookups, 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries dropped by the size limit.
	Evictions uint64
}
