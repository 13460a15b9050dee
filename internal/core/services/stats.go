package services

import "sync/atomic"

// cacheCounters are the cache's internal atomic counters. They are read
// lock-free through Stats snapshots; external reporting goes through the
// injected stats sink, never by mutating these from outside.
type cacheCounters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// CacheStats is a point-in-time snapshot of the cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns a snapshot of the cache counters. A hit reused an existing
// pool entry; a miss created one.
func (c *ConnectionCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Evictions: c.stats.evictions.Load(),
	}
}
