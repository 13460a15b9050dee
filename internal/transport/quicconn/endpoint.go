package quicconn

import (
	"log/slog"
	"net"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/sufield/conncache/internal/core/errors"
)

// endpointState tracks the lazy endpoint's lifecycle:
// uninitialized -> initializing -> ready, with a failed bind resetting to
// uninitialized so a later call may retry.
type endpointState int

const (
	endpointUninitialized endpointState = iota
	endpointInitializing
	endpointReady
)

// initFlight is one in-progress bind. Concurrent first users wait on done
// and share the flight's outcome instead of racing to bind a second socket.
type initFlight struct {
	done      chan struct{}
	transport *quic.Transport
	err       error
}

// LazyEndpoint is the single local transport shared by every connection
// opened under one manager. The socket is bound on first use; at most one
// transport instance exists per manager.
type LazyEndpoint struct {
	override *net.UDPConn
	logger   *slog.Logger

	// listen is swappable for tests that simulate bind failures.
	listen func() (*net.UDPConn, error)

	mu        sync.Mutex
	state     endpointState
	flight    *initFlight
	transport *quic.Transport
	ownsConn  bool
	conn      *net.UDPConn
}

func newLazyEndpoint(override *net.UDPConn, logger *slog.Logger) *LazyEndpoint {
	return &LazyEndpoint{
		override: override,
		logger:   logger,
		listen: func() (*net.UDPConn, error) {
			return net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
		},
	}
}

// getTransport returns the shared transport, binding the local socket on
// first use. Exactly one bind happens no matter how many callers arrive
// concurrently; all of them observe the same outcome. Failure resets the
// endpoint instead of poisoning it.
func (e *LazyEndpoint) getTransport() (*quic.Transport, error) {
	e.mu.Lock()
	switch e.state {
	case endpointReady:
		tr := e.transport
		e.mu.Unlock()
		return tr, nil
	case endpointInitializing:
		flight := e.flight
		e.mu.Unlock()
		<-flight.done
		if flight.err != nil {
			return nil, errors.NewClientError(errors.ErrEndpointInit, flight.err)
		}
		return flight.transport, nil
	}

	flight := &initFlight{done: make(chan struct{})}
	e.state = endpointInitializing
	e.flight = flight
	e.mu.Unlock()

	conn, owns, err := e.bind()

	e.mu.Lock()
	e.flight = nil
	if err != nil {
		e.state = endpointUninitialized
	} else {
		e.state = endpointReady
		e.conn = conn
		e.ownsConn = owns
		e.transport = &quic.Transport{Conn: conn}
		flight.transport = e.transport
	}
	flight.err = err
	e.mu.Unlock()
	close(flight.done)

	if err != nil {
		return nil, errors.NewClientError(errors.ErrEndpointInit, err)
	}
	return flight.transport, nil
}

// bind adopts the caller-supplied socket when one was provided, otherwise
// allocates a fresh one.
func (e *LazyEndpoint) bind() (*net.UDPConn, bool, error) {
	if e.override != nil {
		e.logger.Debug("shared endpoint adopting provided socket", "addr", e.override.LocalAddr())
		return e.override, false, nil
	}
	conn, err := e.listen()
	if err != nil {
		return nil, false, err
	}
	e.logger.Debug("shared endpoint bound", "addr", conn.LocalAddr())
	return conn, true, nil
}

// ready reports whether the endpoint has been bound.
func (e *LazyEndpoint) ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == endpointReady
}

// close releases the transport and, when self-allocated, the socket under
// it. Called once by the manager at teardown.
func (e *LazyEndpoint) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != endpointReady {
		return nil
	}
	e.state = endpointUninitialized
	err := e.transport.Close()
	if e.ownsConn {
		if cerr := e.conn.Close(); err == nil {
			err = cerr
		}
	}
	e.transport = nil
	e.conn = nil
	return err
}
