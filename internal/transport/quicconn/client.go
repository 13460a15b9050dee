package quicconn

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
)

// Client is one pool entry's connection handle. It is immutable after
// creation: the destination, the identity snapshot, and the shared endpoint
// reference never change. The QUIC connection underneath is dialed lazily on
// first send and redialed when the transport reports it dead; a failed send
// never invalidates the entry itself.
type Client struct {
	id          uuid.UUID
	addr        *net.UDPAddr
	endpoint    *LazyEndpoint
	identity    *domain.ClientIdentity
	sendTimeout timeoutSource
	logger      *slog.Logger

	// mu serializes dialing and teardown, not sends. Concurrent sends on the
	// same entry interleave at the transport layer.
	mu     sync.Mutex
	conn   quic.Connection
	closed bool
}

// timeoutSource lets the blocking façade read the config's current send
// timeout without holding a config reference.
type timeoutSource func() time.Duration

func newClient(endpoint *LazyEndpoint, addr *net.UDPAddr, identity *domain.ClientIdentity, sendTimeout timeoutSource, logger *slog.Logger) *Client {
	return &Client{
		id:          uuid.New(),
		addr:        addr,
		endpoint:    endpoint,
		identity:    identity,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Identity returns the identity snapshot this entry presents on handshakes.
func (c *Client) Identity() *domain.ClientIdentity { return c.identity }

// connection returns a live QUIC connection, dialing through the shared
// endpoint when none exists or the previous one has died.
func (c *Client) connection(ctx context.Context) (quic.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("connection handle %s is closed", c.id)
	}
	if c.conn != nil {
		select {
		case <-c.conn.Context().Done():
			c.conn = nil
		default:
			return c.conn, nil
		}
	}

	transport, err := c.endpoint.getTransport()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	conn, err := transport.Dial(dialCtx, c.addr, tlsConfigFor(c.identity), quicConfig())
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Debug("quic connection established", "client_id", c.id, "remote", c.addr)
	return conn, nil
}

// sendBuffer writes one buffer on its own unidirectional stream, closing the
// stream to flush the FIN. One redial is attempted when the failure was
// connection-level.
func (c *Client) sendBuffer(ctx context.Context, data []byte) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		conn, err := c.connection(ctx)
		if err != nil {
			// Endpoint or dial failure: nothing to retry against.
			return attempt, err
		}
		if err := writeOnStream(ctx, conn, data); err != nil {
			lastErr = err
			c.dropConnection(conn)
			continue
		}
		return attempt, nil
	}
	return 2, errors.NewClientError(errors.ErrSendFailed, lastErr)
}

// sendBatch writes each buffer on its own stream, sharing one connection
// across the batch where possible.
func (c *Client) sendBatch(ctx context.Context, buffers [][]byte) (int, error) {
	attempts := 0
	for _, data := range buffers {
		n, err := c.sendBuffer(ctx, data)
		attempts += n
		if err != nil {
			return attempts, err
		}
	}
	return attempts, nil
}

func writeOnStream(ctx context.Context, conn quic.Connection, data []byte) error {
	stream, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	if _, err := stream.Write(data); err != nil {
		stream.CancelWrite(0)
		return fmt.Errorf("writing %d bytes: %w", len(data), err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("finishing stream: %w", err)
	}
	return nil
}

// dropConnection forgets conn so the next send redials, unless another
// caller already replaced it.
func (c *Client) dropConnection(conn quic.Connection) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

// NewBlockingConnection implements ports.BaseConnection. Both façades share
// this same handle; neither opens a duplicate connection.
func (c *Client) NewBlockingConnection(_ *net.UDPAddr, sink ports.StatsSink) ports.BlockingConnection {
	return &BlockingConnection{client: c, sink: sink}
}

// NewNonblockingConnection implements ports.BaseConnection.
func (c *Client) NewNonblockingConnection(_ *net.UDPAddr, sink ports.StatsSink) ports.NonblockingConnection {
	return &NonblockingConnection{client: c, sink: sink}
}

// Close performs the explicit close handshake for this entry's connection.
// The transport requires it; releasing the reference alone would leave the
// peer's half open until idle timeout.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.CloseWithError(0, "pool closed")
	c.conn = nil
	return err
}
