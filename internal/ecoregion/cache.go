package ecoregion

import (
	"container/list"
	"math"
	"sync"

	"github.com/couchcryptid/impact-atlas/internal/observability"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache. Both hits
// and misses are cached, so the wrapped classifier must not change after load.
type CachedClassifier struct {
	inner   Classifier
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedClassifier creates a cache decorator around a classifier.
// metrics may be nil.
func NewCachedClassifier(inner Classifier, maxEntries int, metrics *observability.Metrics) *CachedClassifier {
	return &CachedClassifier{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedClassifier) Classify(lat, lon float64) (Region, bool) {
	// Keyed on exact bits so cached answers match uncached ones bit for bit.
	key := pointKey{lat: math.Float64bits(lat), lon: math.Float64bits(lon)}
	if res, ok := c.cache.get(key); ok {
		c.observe("hit")
		return res.region, res.found
	}
	c.observe("miss")

	region, found := c.inner.Classify(lat, lon)
	c.cache.put(key, classification{region: region, found: found})
	return region, found
}

func (c *CachedClassifier) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RegionCache.WithLabelValues(result).Inc()
}

type pointKey struct {
	lat, lon uint64
}

type classification struct {
	region Region
	found  bool
}

// lruCache is a thread-safe LRU cache of classifications.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front = most recently used
	entries    map[pointKey]*list.Element
}

type entry struct {
	key   pointKey
	value classification
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[pointKey]*list.Element),
	}
}

func (c *lruCache) get(key pointKey) (classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return classification{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lruCache) put(key pointKey, value classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
