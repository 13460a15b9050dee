package quicconn

import (
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/conncache/internal/core/errors"
	"github.com/sufield/conncache/internal/core/ports"
)

func TestManager_Protocol(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, nil)
	assert.Equal(t, ports.ProtocolQUIC, manager.Protocol())
}

func TestManager_PoolsShareOneEndpoint(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, slog.Default())
	t.Cleanup(func() { _ = manager.Close() })

	poolA, err := manager.NewConnectionPool()
	require.NoError(t, err)
	poolB, err := manager.NewConnectionPool()
	require.NoError(t, err)

	assert.Same(t, poolA.(*Pool).endpoint, poolB.(*Pool).endpoint,
		"at most one endpoint instance per manager")
}

func TestManager_UpdateLocalSocketBeforePools(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, slog.Default())
	t.Cleanup(func() { _ = manager.Close() })

	socket, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })

	require.NoError(t, manager.UpdateLocalSocket(socket))

	pool, err := manager.NewConnectionPool()
	require.NoError(t, err)
	tr, err := pool.(*Pool).endpoint.getTransport()
	require.NoError(t, err)
	assert.Same(t, socket, tr.Conn.(*net.UDPConn), "endpoint adopts the provided socket")
}

func TestManager_UpdateLocalSocketAfterPoolRejected(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, slog.Default())
	t.Cleanup(func() { _ = manager.Close() })

	_, err = manager.NewConnectionPool()
	require.NoError(t, err)

	socket, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })

	err = manager.UpdateLocalSocket(socket)
	assert.ErrorIs(t, err, errors.ErrSocketAlreadyBound)
}

func TestManager_CloseIdempotentWithoutPools(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, nil)
	assert.NoError(t, manager.Close())
	assert.NoError(t, manager.Close())
}
