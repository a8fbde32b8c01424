package metrics

import "sync/atomic"

// CacheMetric counts hits and misses of a memoized computation.
type CacheMetric struct {
	name   string
	hits   int64
	misses int64
}

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Hit records a cache hit.
func (c *CacheMetric) Hit() {
	if enabled.Load() {
		atomic.AddInt64(&c.hits, 1)
	}
}

// Miss records a cache miss.
func (c *CacheMetric) Miss() {
	if enabled.Load() {
		atomic.AddInt64(&c.misses, 1)
	}
}

// Name returns the metric name.
func (c *CacheMetric) Name() string { return c.name }

// Hits returns the number of recorded hits.
func (c *CacheMetric) Hits() int64 { return atomic.LoadInt64(&c.hits) }

// Misses returns the number of recorded misses.
func (c *CacheMetric) Misses() int64 { return atomic.LoadInt64(&c.misses) }

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (c *CacheMetric) HitRate() float64 {
	h, m := c.Hits(), c.Misses()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// Reset clears the counters.
func (c *CacheMetric) Reset() {
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// CacheStats is a point-in-time view of a cache metric.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns the current counters.
func (c *CacheMetric) Stats() CacheStats {
	return CacheStats{Name: c.name, Hits: c.Hits(), Misses: c.Misses(), HitRate: c.HitRate()}
}

// ForestCache tracks the version-keyed forest memo.
var ForestCache = newCacheMetric("forest_cache")

// AllCacheMetrics returns all registered cache metrics.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{ForestCache}
}
