// Package services implements the protocol-agnostic connection cache: a
// registry mapping destination addresses to bounded pools of reusable
// connection handles, built on the capability interfaces in ports.
package services

import (
	"crypto/ed25519"
	"log/slog"
	"net"
	"sync"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
)

// DefaultMaxPools caps the number of simultaneously cached destination
// pools. Exceeding it evicts a random victim pool.
const DefaultMaxPools = 1024

// Config carries the tunables for a ConnectionCache.
type Config struct {
	// PoolCapacity is the fixed per-destination connection cap, at least 1.
	PoolCapacity int
	// MaxPools bounds the number of cached pools; DefaultMaxPools when zero.
	MaxPools int
	// Sink receives per-send observations; NopSink when nil.
	Sink ports.StatsSink
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// ConnectionCache maps destination addresses to bounded pools of reusable
// connection handles. It owns every pool exclusively; pools own their
// entries. Lookup and creation for different addresses only contend on the
// registry lock for the duration of the lookup/insert critical section.
type ConnectionCache struct {
	name         string
	manager      ports.ConnectionManager
	poolCapacity int
	maxPools     int
	sink         ports.StatsSink
	logger       *slog.Logger

	mu     sync.RWMutex
	pools  map[string]*cachedPool
	closed bool

	stats cacheCounters
}

// cachedPool pairs one destination's pool with the per-pool growth lock and
// the round-robin cursor used once the pool is at capacity. closed is set
// under mu when the pool is evicted or drained, so a caller that fetched the
// entry from the registry before removal cannot grow it afterwards.
type cachedPool struct {
	addr *net.UDPAddr

	mu     sync.Mutex
	pool   ports.ConnectionPool
	cursor uint64
	closed bool
}

// New creates a connection cache bound to one manager. The manager's
// protocol tag is metadata only; the cache never inspects it beyond logging.
func New(name string, manager ports.ConnectionManager, cfg Config) (*ConnectionCache, error) {
	if cfg.PoolCapacity < 1 {
		return nil, errors.ErrInvalidPoolCapacity
	}
	if cfg.MaxPools == 0 {
		cfg.MaxPools = DefaultMaxPools
	}
	if cfg.Sink == nil {
		cfg.Sink = ports.NopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &ConnectionCache{
		name:         name,
		manager:      manager,
		poolCapacity: cfg.PoolCapacity,
		maxPools:     cfg.MaxPools,
		sink:         cfg.Sink,
		logger:       cfg.Logger.With("cache", name, "protocol", string(manager.Protocol())),
		pools:        make(map[string]*cachedPool),
	}
	c.logger.Info("connection cache created",
		"pool_capacity", c.poolCapacity,
		"max_pools", c.maxPools,
	)
	return c, nil
}

// Name returns the cache's identifying name.
func (c *ConnectionCache) Name() string { return c.name }

// Protocol returns the manager's wire protocol tag.
func (c *ConnectionCache) Protocol() ports.Protocol { return c.manager.Protocol() }

// GetConnection returns a blocking façade over a pooled connection handle
// for addr, creating the pool and growing it up to capacity as needed.
func (c *ConnectionCache) GetConnection(addr *net.UDPAddr) (ports.BlockingConnection, error) {
	base, err := c.getBaseConnection(addr)
	if err != nil {
		return nil, err
	}
	return base.NewBlockingConnection(addr, c.sink), nil
}

// GetNonblockingConnection is the context-driven counterpart of
// GetConnection, wrapping the same underlying handle kind.
func (c *ConnectionCache) GetNonblockingConnection(addr *net.UDPAddr) (ports.NonblockingConnection, error) {
	base, err := c.getBaseConnection(addr)
	if err != nil {
		return nil, err
	}
	return base.NewNonblockingConnection(addr, c.sink), nil
}

// UpdateIdentity rotates the shared identity material. Connections already
// open keep the identity they were built with.
func (c *ConnectionCache) UpdateIdentity(key ed25519.PrivateKey) error {
	if err := c.manager.UpdateIdentity(key); err != nil {
		return err
	}
	c.logger.Info("client identity rotated")
	return nil
}

// SetAdmissionTable swaps the opaque stake-weighted peer table and the local
// identity key used for admission lookups. Advisory metadata consumed by the
// manager; the cache itself enforces nothing.
func (c *ConnectionCache) SetAdmissionTable(table *domain.AdmissionTable, identity ed25519.PublicKey) {
	c.manager.SetAdmissionTable(table, identity)
	peers := 0
	if table != nil {
		peers = table.Len()
	}
	c.logger.Info("admission table replaced", "peers", peers)
}

// getBaseConnection resolves addr to a pool entry: round-robin among
// existing entries once the pool is at capacity, otherwise grow by one.
func (c *ConnectionCache) getBaseConnection(addr *net.UDPAddr) (ports.BaseConnection, error) {
	key := addr.String()

	c.mu.RLock()
	closed := c.closed
	entry := c.pools[key]
	c.mu.RUnlock()
	if closed {
		return nil, errors.ErrCacheClosed
	}

	if entry == nil {
		var err error
		entry, err = c.createPool(key, addr)
		if err != nil {
			return nil, err
		}
	}

	base, hit, err := entry.get(c.manager, c.poolCapacity)
	if err != nil {
		return nil, err
	}
	if hit {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	return base, nil
}

// createPool inserts a pool for key, building it via the manager. Exactly
// one pool per distinct address exists at any time; a caller losing the
// insert race adopts the winner's pool.
func (c *ConnectionCache) createPool(key string, addr *net.UDPAddr) (*cachedPool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.ErrCacheClosed
	}
	if entry, ok := c.pools[key]; ok {
		return entry, nil
	}

	pool, err := c.manager.NewConnectionPool()
	if err != nil {
		// No partial pool: shared state is unchanged and the next call to
		// this address retries endpoint resolution from scratch.
		return nil, err
	}

	if len(c.pools) >= c.maxPools {
		c.evictLocked()
	}

	entry := &cachedPool{addr: addr, pool: pool}
	c.pools[key] = entry
	c.logger.Debug("created connection pool", "addr", key, "pools", len(c.pools))
	return entry, nil
}

// evictLocked removes one victim pool and explicitly closes it. Map
// iteration order supplies the randomness. Caller holds the write lock.
func (c *ConnectionCache) evictLocked() {
	for key, entry := range c.pools {
		delete(c.pools, key)
		c.stats.evictions.Add(1)
		entry.mu.Lock()
		entry.closed = true
		if err := entry.pool.Close(); err != nil {
			c.logger.Warn("evicted pool close failed", "addr", key, "error", err)
		}
		entry.mu.Unlock()
		c.logger.Debug("evicted connection pool", "addr", key)
		return
	}
}

// NumPools returns the number of cached destination pools.
func (c *ConnectionCache) NumPools() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// Close drains the registry and explicitly closes every pool before
// returning. Close failures are logged and swallowed; teardown cleanup is
// advisory, not a checked contract.
func (c *ConnectionCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pools := c.pools
	c.pools = make(map[string]*cachedPool)
	c.mu.Unlock()

	for key, entry := range pools {
		entry.mu.Lock()
		entry.closed = true
		if err := entry.pool.Close(); err != nil {
			c.logger.Warn("pool close failed during cache teardown", "addr", key, "error", err)
		}
		entry.mu.Unlock()
	}
	if err := c.manager.Close(); err != nil {
		c.logger.Warn("manager close failed during cache teardown", "error", err)
	}
	c.logger.Info("connection cache closed", "pools_drained", len(pools))
	return nil
}

// get returns an entry from the pool, growing it by one while under
// capacity. Growth is serialized by the per-pool lock, so concurrent callers
// can never both observe "under capacity" and overshoot it. A pool that was
// evicted or drained after this entry was fetched from the registry refuses
// growth; reviving it would leak a connection no owner closes.
func (p *cachedPool) get(manager ports.ConnectionManager, capacity int) (ports.BaseConnection, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false, errors.ErrCacheClosed
	}

	n := p.pool.NumConnections()
	if n < capacity {
		cfg := manager.NewConnectionConfig()
		idx := p.pool.AddConnection(cfg, p.addr)
		base, err := p.pool.Get(idx)
		return base, false, err
	}

	// At capacity: reuse entries round-robin. Entries are never evicted by
	// send failures, only replaced through this rotation.
	idx := int(p.cursor % uint64(n))
	p.cursor++
	base, err := p.pool.Get(idx)
	return base, true, err
}
