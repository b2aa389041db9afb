package vectorindex

import (
	"container/list"
	"fmt"
	"sync"
)

// DefaultCacheCapacity bounds the search cache so distinct query tuples
// cannot grow memory indefinitely.
const DefaultCacheCapacity = 512

// CacheKey identifies one memoized similarity search.
type CacheKey struct {
	Query     string
	Language  string
	K         int
	Threshold float32
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%d|%g", k.Query, k.Language, k.K, k.Threshold)
}

// SearchCache memoizes similarity-search results per (query, language, k,
// threshold) tuple with LRU eviction. Failed computations are never stored,
// so a transient search error is retried on the next identical request.
type SearchCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[CacheKey]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key     CacheKey
	results []Result
}

// NewSearchCache creates a cache holding at most capacity entries.
// Non-positive capacities fall back to DefaultCacheCapacity.
func NewSearchCache(capacity int) *SearchCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &SearchCache{
		capacity: capacity,
		entries:  make(map[CacheKey]*list.Element),
		order:    list.New(),
	}
}

// GetOrCompute returns the cached results for key, or runs compute and
// stores its result on success. Concurrent callers for the same missing key
// may both compute; the last writer wins, which is harmless because
// identical keys compute identical results.
func (c *SearchCache) GetOrCompute(key CacheKey, compute func() ([]Result, error)) ([]Result, error) {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		results := el.Value.(*cacheEntry).results
		c.mu.Unlock()
		return results, nil
	}
	c.mu.Unlock()

	results, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).results = results
		return results, nil
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, results: results})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return results, nil
}

// Len returns the number of cached entries.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops all entries. Called after an index rebuild since cached
// results may reference stale rows.
func (c *SearchCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]*list.Element)
	c.order.Init()
}
