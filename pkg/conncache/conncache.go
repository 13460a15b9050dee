// Package conncache is the public API of the outbound connection cache: it
// supplies ready-to-use QUIC connection façades per destination address,
// caps simultaneous connections per destination, and lets the node's
// mutual-TLS identity rotate without tearing down unrelated traffic.
package conncache

import (
	"crypto/ed25519"
	"fmt"
	"net"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
	"github.com/sufield/conncache/internal/core/services"
	"github.com/sufield/conncache/internal/transport/quicconn"
)

// Public aliases for the capability and value types callers interact with.
type (
	// BlockingConnection sends synchronously, suspending the caller.
	BlockingConnection = ports.BlockingConnection
	// NonblockingConnection sends under the caller's context.
	NonblockingConnection = ports.NonblockingConnection
	// StatsSink receives per-send observations.
	StatsSink = ports.StatsSink
	// SendObservation is one send outcome delivered to a StatsSink.
	SendObservation = ports.SendObservation
	// AdmissionTable is the opaque stake-weighted peer table.
	AdmissionTable = domain.AdmissionTable
	// ClientIdentity is the mutual-TLS identity presented on new connections.
	ClientIdentity = domain.ClientIdentity
	// CacheStats is a snapshot of the cache counters.
	CacheStats = services.CacheStats
)

// Sentinel errors, matchable with errors.Is.
var (
	ErrIndexOutOfRange    = errors.ErrIndexOutOfRange
	ErrEndpointInit       = errors.ErrEndpointInit
	ErrCacheCreation      = errors.ErrCacheCreation
	ErrCacheClosed        = errors.ErrCacheClosed
	ErrSocketAlreadyBound = errors.ErrSocketAlreadyBound
)

// NewAdmissionTable creates an empty stake-weighted peer table.
func NewAdmissionTable() *AdmissionTable {
	return domain.NewAdmissionTable()
}

// Cache is a QUIC connection cache bound to one network identity. It is safe
// for concurrent use by many goroutines.
type Cache struct {
	inner   *services.ConnectionCache
	manager *quicconn.Manager
}

// New constructs a cache. Without options the cache generates a fresh
// identity keypair and uses defaults for capacity and stats.
func New(name string, opts ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var cfg *quicconn.ClientConfig
	var err error
	switch {
	case o.identity != nil:
		cfg = quicconn.NewClientConfigFromIdentity(o.identity)
	case o.key != nil:
		cfg, err = quicconn.NewClientConfigFromKey(o.key)
	default:
		cfg, err = quicconn.NewClientConfig()
	}
	if err != nil {
		return nil, errors.NewClientError(errors.ErrCacheCreation, err)
	}
	if o.table != nil {
		cfg.SetAdmissionTable(o.table, o.identityKey)
	}
	if o.socket != nil {
		cfg.SetSocketOverride(o.socket)
	}
	if o.sendTimeout > 0 {
		cfg.SetSendTimeout(o.sendTimeout)
	}

	manager := quicconn.NewManager(cfg, o.logger)
	inner, err := services.New(name, manager, services.Config{
		PoolCapacity: o.poolCapacity,
		MaxPools:     o.maxPools,
		Sink:         o.sink,
		Logger:       o.logger,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, manager: manager}, nil
}

// NewQUICCache constructs a cache with the positional parameters most
// callers need: an identity keypair, an admission table, and the fixed
// per-destination connection cap.
func NewQUICCache(name string, key ed25519.PrivateKey, table *AdmissionTable, poolCapacity int) (*Cache, error) {
	opts := []Option{WithPoolCapacity(poolCapacity)}
	if key != nil {
		opts = append(opts, WithIdentityKey(key))
		if pub, ok := key.Public().(ed25519.PublicKey); ok && table != nil {
			opts = append(opts, WithAdmissionTable(table, pub))
		}
	} else if table != nil {
		opts = append(opts, WithAdmissionTable(table, nil))
	}
	return New(name, opts...)
}

// GetConnection resolves addr ("host:port") and returns a blocking façade
// over a pooled connection handle, creating or growing the destination's
// pool as needed.
func (c *Cache) GetConnection(addr string) (BlockingConnection, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", addr, err)
	}
	return c.inner.GetConnection(udpAddr)
}

// GetNonblockingConnection is the context-driven counterpart of
// GetConnection; both façades share the same underlying handles.
func (c *Cache) GetNonblockingConnection(addr string) (NonblockingConnection, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", addr, err)
	}
	return c.inner.GetNonblockingConnection(udpAddr)
}

// UpdateIdentity rotates the cache's mutual-TLS identity. Idempotent and
// safe while connections are active: existing entries keep the identity they
// were built with, entries created afterward present the new one.
func (c *Cache) UpdateIdentity(key ed25519.PrivateKey) error {
	return c.inner.UpdateIdentity(key)
}

// SetAdmissionTable swaps the opaque peer-weighting table and the local
// identity key used for admission lookups.
func (c *Cache) SetAdmissionTable(table *AdmissionTable, identity ed25519.PublicKey) {
	c.inner.SetAdmissionTable(table, identity)
}

// UpdateLocalSocket binds the shared endpoint to a pre-created socket, e.g.
// for port-sharing with other subsystems. It must be called before any pool
// has been created.
func (c *Cache) UpdateLocalSocket(conn *net.UDPConn) error {
	return c.manager.UpdateLocalSocket(conn)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats { return c.inner.Stats() }

// NumPools returns the number of cached destination pools.
func (c *Cache) NumPools() int { return c.inner.NumPools() }

// Close drains the cache, explicitly closing every pooled connection and
// releasing the shared endpoint before returning.
func (c *Cache) Close() error { return c.inner.Close() }
