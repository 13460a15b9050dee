package conncache

import (
	"crypto/ed25519"
	"log/slog"
	"net"
	"time"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/ports"
	"github.com/sufield/conncache/internal/core/services"
)

// Option configures cache creation behavior.
type Option func(*cacheOpts)

// cacheOpts holds the configuration for cache creation.
type cacheOpts struct {
	poolCapacity int
	maxPools     int
	key          ed25519.PrivateKey
	identity     *domain.ClientIdentity
	table        *domain.AdmissionTable
	identityKey  ed25519.PublicKey
	sink         ports.StatsSink
	logger       *slog.Logger
	socket       *net.UDPConn
	sendTimeout  time.Duration
}

func defaultOptions() *cacheOpts {
	return &cacheOpts{
		poolCapacity: 4,
		maxPools:     services.DefaultMaxPools,
	}
}

// WithPoolCapacity sets the fixed per-destination connection cap (>= 1).
func WithPoolCapacity(capacity int) Option {
	return func(o *cacheOpts) {
		o.poolCapacity = capacity
	}
}

// WithMaxPools bounds the number of simultaneously cached destinations.
func WithMaxPools(maxPools int) Option {
	return func(o *cacheOpts) {
		o.maxPools = maxPools
	}
}

// WithIdentityKey derives the initial identity material from the given
// keypair instead of generating a fresh one.
func WithIdentityKey(key ed25519.PrivateKey) Option {
	return func(o *cacheOpts) {
		o.key = key
	}
}

// WithIdentity uses externally sourced identity material, such as an
// X509-SVID fetched from a workload agent. Takes precedence over
// WithIdentityKey.
func WithIdentity(identity *ClientIdentity) Option {
	return func(o *cacheOpts) {
		o.identity = identity
	}
}

// WithAdmissionTable supplies the opaque stake-weighted peer table and the
// local identity key used for admission lookups.
func WithAdmissionTable(table *AdmissionTable, identity ed25519.PublicKey) Option {
	return func(o *cacheOpts) {
		o.table = table
		o.identityKey = identity
	}
}

// WithStatsSink injects the sink that receives per-send observations.
func WithStatsSink(sink StatsSink) Option {
	return func(o *cacheOpts) {
		o.sink = sink
	}
}

// WithLogger sets the structured logger used by the cache and its pools.
func WithLogger(logger *slog.Logger) Option {
	return func(o *cacheOpts) {
		o.logger = logger
	}
}

// WithLocalSocket binds the shared endpoint to a pre-created socket instead
// of letting it self-allocate one.
func WithLocalSocket(conn *net.UDPConn) Option {
	return func(o *cacheOpts) {
		o.socket = conn
	}
}

// WithSendTimeout bounds blocking sends end to end. Non-blocking sends are
// bounded by the caller's context instead.
func WithSendTimeout(d time.Duration) Option {
	return func(o *cacheOpts) {
		o.sendTimeout = d
	}
}
