// Package ports declares the capability interfaces the connection cache core
// depends on. The cache's logic is written against these interfaces only; a
// wire protocol plugs in by implementing the pool, manager, and connection
// capabilities once.
package ports

import (
	"context"
	"net"
)

// BlockingConnection sends data over one pool entry, suspending the caller
// until the send completes or the transport-level timeout expires.
type BlockingConnection interface {
	// ServerAddr returns the destination this connection is bound to.
	ServerAddr() *net.UDPAddr

	// SendData writes one buffer and blocks until it is flushed to the
	// transport. A failure is local to this call; the pool entry stays valid.
	SendData(data []byte) error

	// SendDataBatch writes several buffers over the same underlying
	// connection.
	SendDataBatch(buffers [][]byte) error
}

// NonblockingConnection is the context-driven counterpart of
// BlockingConnection. A pending send is abandoned by cancelling the context,
// with no side effects on the pool entry.
type NonblockingConnection interface {
	ServerAddr() *net.UDPAddr
	SendData(ctx context.Context, data []byte) error
	SendDataBatch(ctx context.Context, buffers [][]byte) error
}

// BaseConnection is one pool entry: a reference-counted client handle bound
// to the shared endpoint and a destination. Both façades wrap the same
// underlying handle; requesting one never opens a duplicate connection.
type BaseConnection interface {
	NewBlockingConnection(addr *net.UDPAddr, sink StatsSink) BlockingConnection
	NewNonblockingConnection(addr *net.UDPAddr, sink StatsSink) NonblockingConnection

	// Close performs the transport's explicit close handshake. Owners must
	// call it before releasing their reference; deallocation alone does not
	// flush the transport.
	Close() error
}
