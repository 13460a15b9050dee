package ports

import (
	"crypto/ed25519"
	"net"

	"github.com/sufield/conncache/internal/core/domain"
)

// Protocol tags the wire protocol a manager instantiates. The cache treats
// it as metadata only.
type Protocol string

// ProtocolQUIC is the QUIC specialization's tag.
const ProtocolQUIC Protocol = "quic"

// ConnectionConfig is an opaque snapshot of a manager's configuration,
// produced by ConnectionManager.NewConnectionConfig and consumed by
// ConnectionPool.AddConnection. Snapshots taken at different times may carry
// different identities; the cache never looks inside.
type ConnectionConfig any

// ConnectionPool is a bounded, append-only ordered collection of connection
// handles for one destination. Capacity is enforced by the caller (the
// cache); growth for one pool is serialized by the caller as well.
type ConnectionPool interface {
	// AddConnection grows the pool by one entry built from the given config
	// snapshot and returns the new entry's index, or -1 when the pool is
	// already closed.
	AddConnection(cfg ConnectionConfig, addr *net.UDPAddr) int

	// NumConnections returns the current entry count.
	NumConnections() int

	// Get returns the entry at index, or ErrIndexOutOfRange past the end.
	Get(index int) (BaseConnection, error)

	// Close explicitly closes every entry before clearing the entry list.
	Close() error
}

// ConnectionManager is the protocol-specific factory: it builds pools bound
// to the shared lazy endpoint, snapshots configuration for entry creation,
// and rotates the identity material.
type ConnectionManager interface {
	// NewConnectionPool builds an empty pool bound to the shared endpoint,
	// resolving the endpoint on first call. A bind failure surfaces here and
	// leaves the manager retryable.
	NewConnectionPool() (ConnectionPool, error)

	// NewConnectionConfig returns a value snapshot of the current
	// configuration. The identity reference is copied, not its contents.
	NewConnectionConfig() ConnectionConfig

	// UpdateIdentity regenerates certificate and key from the keypair and
	// atomically installs them. Existing entries are unaffected.
	UpdateIdentity(key ed25519.PrivateKey) error

	// SetAdmissionTable swaps the opaque peer-weighting table and the local
	// identity key used for admission lookups. Advisory metadata only.
	SetAdmissionTable(table *domain.AdmissionTable, identity ed25519.PublicKey)

	// Protocol reports which wire protocol this manager instantiates.
	Protocol() Protocol

	// Close releases the shared endpoint. Called once by the owning cache
	// after every pool has been drained.
	Close() error
}
