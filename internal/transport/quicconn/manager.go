package quicconn

import (
	"crypto/ed25519"
	"log/slog"
	"net"
	"sync"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
)

// Manager is the QUIC connection manager: it owns the client configuration
// and the single lazily bound endpoint, and builds pools on request for the
// cache.
type Manager struct {
	config *ClientConfig
	logger *slog.Logger

	mu       sync.Mutex
	endpoint *LazyEndpoint
}

var _ ports.ConnectionManager = (*Manager)(nil)

// NewManager creates a manager around the given client configuration.
func NewManager(config *ClientConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{config: config, logger: logger}
}

// Protocol implements ports.ConnectionManager.
func (m *Manager) Protocol() ports.Protocol { return ports.ProtocolQUIC }

// NewConnectionPool builds an empty pool bound to the shared endpoint. The
// endpoint is resolved here so a bind failure surfaces to the triggering
// call and no partial pool is created; the failed endpoint resets itself and
// the next call retries.
func (m *Manager) NewConnectionPool() (ports.ConnectionPool, error) {
	endpoint := m.sharedEndpoint()
	if _, err := endpoint.getTransport(); err != nil {
		return nil, err
	}
	return &Pool{endpoint: endpoint, logger: m.logger}, nil
}

// sharedEndpoint returns the manager's endpoint, creating the placeholder on
// first call. Binding itself is deferred to the endpoint's single-flight
// initialization.
func (m *Manager) sharedEndpoint() *LazyEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endpoint == nil {
		m.endpoint = newLazyEndpoint(m.config.currentSocketOverride(), m.logger)
	}
	return m.endpoint
}

// NewConnectionConfig implements ports.ConnectionManager: a value snapshot
// sharing the identity reference.
func (m *Manager) NewConnectionConfig() ports.ConnectionConfig {
	return m.config.clone()
}

// UpdateIdentity implements ports.ConnectionManager.
func (m *Manager) UpdateIdentity(key ed25519.PrivateKey) error {
	return m.config.UpdateIdentity(key)
}

// SetAdmissionTable implements ports.ConnectionManager.
func (m *Manager) SetAdmissionTable(table *domain.AdmissionTable, identity ed25519.PublicKey) {
	m.config.SetAdmissionTable(table, identity)
}

// UpdateLocalSocket binds the shared endpoint to a pre-created socket, for
// callers sharing a port with other subsystems. It must happen before any
// pool has been created; once the endpoint exists the override is rejected.
func (m *Manager) UpdateLocalSocket(conn *net.UDPConn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endpoint != nil {
		return errors.ErrSocketAlreadyBound
	}
	m.config.SetSocketOverride(conn)
	return nil
}

// Close releases the shared endpoint. Called by the cache after draining
// every pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endpoint == nil {
		return nil
	}
	return m.endpoint.close()
}
