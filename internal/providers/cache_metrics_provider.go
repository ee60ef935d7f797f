package providers

import (
	"listenerd/internal/structures"
	"strings"
)

// RouteCacheProvider counts response cache lookups per API route. Cache keys
// are request paths with their query string; the route label is the path.
type RouteCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func cacheRoute(key string) string {
	route, _, _ := strings.Cut(key, "?")
	if route == "" {
		return "/"
	}
	return route
}

func (c *RouteCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits(cacheRoute(key))
	} else {
		c.metrics.IncCacheMisses(cacheRoute(key))
	}
	return val, ok
}

func (c *RouteCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

// Clear runs after every collection pass.
func (c *RouteCacheProvider) Clear() {
	c.inner.Clear()
}

// NewInstrumentedCacheProvider wraps the response cache with per-route
// lookup counters. A disabled cache is returned bare so every request is not
// reported as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &RouteCacheProvider{inner: inner, metrics: metrics}
}
