package quicconn

import (
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/conncache/internal/core/errors"
)

func newTestPool(t *testing.T) (*Pool, *Manager) {
	t.Helper()
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, slog.Default())
	t.Cleanup(func() { _ = manager.Close() })

	pool, err := manager.NewConnectionPool()
	require.NoError(t, err)
	return pool.(*Pool), manager
}

func poolAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func TestPool_GetOutOfRange(t *testing.T) {
	pool, manager := newTestPool(t)

	idx := pool.AddConnection(manager.NewConnectionConfig(), poolAddr(7001))
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, pool.NumConnections())

	_, err := pool.Get(5)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
	_, err = pool.Get(-1)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)

	base, err := pool.Get(0)
	require.NoError(t, err)
	assert.NotNil(t, base)
}

func TestPool_AppendOnlyOrdering(t *testing.T) {
	pool, manager := newTestPool(t)
	addr := poolAddr(7002)

	first := pool.AddConnection(manager.NewConnectionConfig(), addr)
	second := pool.AddConnection(manager.NewConnectionConfig(), addr)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	baseFirst, err := pool.Get(0)
	require.NoError(t, err)
	baseSecond, err := pool.Get(1)
	require.NoError(t, err)
	assert.NotSame(t, baseFirst, baseSecond)
}

func TestPool_CloseClosesEveryEntry(t *testing.T) {
	pool, manager := newTestPool(t)
	addr := poolAddr(7003)

	clients := make([]*Client, 0, 3)
	for i := 0; i < 3; i++ {
		idx := pool.AddConnection(manager.NewConnectionConfig(), addr)
		base, err := pool.Get(idx)
		require.NoError(t, err)
		clients = append(clients, base.(*Client))
	}

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.NumConnections(), "entry list cleared after close")
	for i, client := range clients {
		client.mu.Lock()
		assert.True(t, client.closed, "entry %d must be explicitly closed", i)
		client.mu.Unlock()
	}
}

func TestPool_AddConnectionAfterCloseRejected(t *testing.T) {
	pool, manager := newTestPool(t)
	addr := poolAddr(7005)

	idx := pool.AddConnection(manager.NewConnectionConfig(), addr)
	require.Equal(t, 0, idx)
	require.NoError(t, pool.Close())

	// Growth after teardown would produce an entry no owner ever closes.
	idx = pool.AddConnection(manager.NewConnectionConfig(), addr)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 0, pool.NumConnections())

	_, err := pool.Get(-1)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)
}

func TestPool_EntriesSnapshotIdentityAtCreation(t *testing.T) {
	cfg, err := NewClientConfig()
	require.NoError(t, err)
	manager := NewManager(cfg, slog.Default())
	t.Cleanup(func() { _ = manager.Close() })

	pool, err := manager.NewConnectionPool()
	require.NoError(t, err)
	addr := poolAddr(7004)

	oldIdentity := cfg.Identity()
	idxOld := pool.AddConnection(manager.NewConnectionConfig(), addr)

	_, rotKey := testKeypair(t)
	require.NoError(t, manager.UpdateIdentity(rotKey))
	idxNew := pool.AddConnection(manager.NewConnectionConfig(), addr)

	baseOld, err := pool.Get(idxOld)
	require.NoError(t, err)
	baseNew, err := pool.Get(idxNew)
	require.NoError(t, err)

	// Rotation only affects entries created afterward.
	assert.True(t, baseOld.(*Client).Identity().Equal(oldIdentity))
	assert.True(t, baseNew.(*Client).Identity().Equal(cfg.Identity()))
	assert.False(t, baseOld.(*Client).Identity().Equal(baseNew.(*Client).Identity()))
}
