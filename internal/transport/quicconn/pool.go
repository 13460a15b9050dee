package quicconn

import (
	"log/slog"
	"net"
	"sync"

	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
)

// Pool is the bounded, append-only collection of connection handles for one
// destination. Entries are only appended or looked up by index, never
// reordered; capacity is enforced by the owning cache.
type Pool struct {
	endpoint *LazyEndpoint
	logger   *slog.Logger

	mu      sync.Mutex
	clients []*Client
	closed  bool
}

var _ ports.ConnectionPool = (*Pool)(nil)

// AddConnection grows the pool by one entry built from the config snapshot
// and returns its index, or -1 when the pool is already closed. The
// snapshot's identity is captured by the new entry, so entries created after
// an identity rotation present the new certificate while earlier ones keep
// theirs.
func (p *Pool) AddConnection(cfg ports.ConnectionConfig, addr *net.UDPAddr) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		// An entry appended after Close would never be closed by anyone.
		return -1
	}
	snapshot := cfg.(*ClientConfig)
	client := newClient(p.endpoint, addr, snapshot.Identity(), snapshot.currentSendTimeout, p.logger)
	p.clients = append(p.clients, client)
	return len(p.clients) - 1
}

// NumConnections returns the current entry count.
func (p *Pool) NumConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Get returns the entry at index.
func (p *Pool) Get(index int) (ports.BaseConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.clients) {
		return nil, errors.ErrIndexOutOfRange
	}
	return p.clients[index], nil
}

// Close explicitly closes every entry before clearing the list. The close
// handshake must happen before the references are released; the transport
// needs the flush, not just the deallocation.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var firstErr error
	for _, client := range p.clients {
		if err := client.Close(); err != nil {
			p.logger.Warn("connection close failed", "client_id", client.id, "remote", client.addr, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	p.clients = nil
	return firstErr
}
