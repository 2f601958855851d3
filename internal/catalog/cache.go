package catalog

import (
	"container/list"
	"sync"
	"time"

	"github.com/sbilibin2017/influxts/internal/models"
)

// metricCache is a bounded cache of metric lists with per-entry expiry and
// LRU eviction. The catalog stores one logical entry today; the capacity
// bound keeps the abstraction ready for per-filter entries.
type metricCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key     string
	metrics []models.Metric
	expires time.Time
}

func newMetricCache(capacity int) *metricCache {
	return &metricCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get returns the entry for key if it exists and has not expired as of now.
// Expired entries are removed on access.
func (c *metricCache) get(key string, now time.Time) ([]models.Metric, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if !now.Before(entry.expires) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.metrics, true
}

// set stores or replaces the entry for key, evicting the least recently used
// entry when the capacity bound is exceeded. An entry is never partially
// updated: the metric list and expiry are replaced together.
func (c *metricCache) set(key string, metrics []models.Metric, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.metrics = metrics
		entry.expires = expires
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, metrics: metrics, expires: expires})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
