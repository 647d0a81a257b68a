package reporting

import (
	"container/list"
	"sync"
	"time"
)

// responseCache is a thread-safe LRU cache with per-entry TTL. Dashboards
// poll the summary and timeseries widgets; a short TTL keeps those reads off
// the database without serving stale numbers for long.
type responseCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	cache    map[string]*list.Element
	order    *list.List
	nowFn    func() time.Time
}

type cacheEntry struct {
	key     string
	value   interface{}
	expires time.Time
}

func newResponseCache(capacity int, ttl time.Duration) *responseCache {
	return &responseCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*list.Element),
		order:    list.New(),
		nowFn:    time.Now,
	}
}

// get retrieves a cached response. Returns nil if absent or expired.
func (c *responseCache) get(key string) interface{} {
	if c == nil || c.capacity <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[key]
	if !exists {
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if c.nowFn().After(entry.expires) {
		delete(c.cache, entry.key)
		c.order.Remove(elem)
		return nil
	}

	c.order.MoveToFront(elem)
	return entry.value
}

// put stores a response, evicting the least recently used entry if full.
func (c *responseCache) put(key string, value interface{}) {
	if c == nil || c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.nowFn().Add(c.ttl)

	if elem, exists := c.cache[key]; exists {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expires = expires
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			entry := oldest.Value.(*cacheEntry)
			delete(c.cache, entry.key)
			c.order.Remove(oldest)
		}
	}

	entry := &cacheEntry{key: key, value: value, expires: expires}
	c.cache[key] = c.order.PushFront(entry)
}
