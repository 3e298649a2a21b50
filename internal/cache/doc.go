// Package cache provides a small LRU cache for objects that own external
// resources.
//
// Entries evicted by the size limit, replaced by Set, removed by Delete or
// dropped by Purge are passed to the eviction hook, which releases them:
//
//	c := cache.New[key, *resources](32, func(_ key, r *resources) {
//		r.release()
//	})
//	res, err := c.GetOrCreate(k, func() (*resources, error) {
//		return allocate(k)
//	})
//
// Cache is safe for concurrent use. The hook runs with the cache lock
// held and must not call back into the cache.
package cache
