package quicconn

import (
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/conncache/internal/core/domain"
)

func testKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestClientConfig_CloneSnapshotsIdentity(t *testing.T) {
	pubOld, privOld := testKeypair(t)
	pubNew, privNew := testKeypair(t)

	cfg, err := NewClientConfigFromKey(privOld)
	require.NoError(t, err)

	before := cfg.clone()
	require.NoError(t, cfg.UpdateIdentity(privNew))
	after := cfg.clone()

	// Snapshots taken before the rotation keep the old identity; snapshots
	// taken after see the new one.
	assert.Equal(t, pubOld, before.Identity().PublicKey)
	assert.Equal(t, pubNew, after.Identity().PublicKey)

	// The old identity value itself is untouched, only replaced.
	assert.Equal(t, pubOld, before.Identity().Certificate.Leaf.PublicKey.(ed25519.PublicKey))
}

func TestClientConfig_NoTornIdentityUnderRotation(t *testing.T) {
	_, priv := testKeypair(t)
	cfg, err := NewClientConfigFromKey(priv)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, rotKey := testKeypair(t)
			assert.NoError(t, cfg.UpdateIdentity(rotKey))
		}
		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			identity := cfg.Identity()
			// Certificate and key always belong to the same keypair.
			leafPub := identity.Certificate.Leaf.PublicKey.(ed25519.PublicKey)
			assert.Equal(t, identity.PublicKey, leafPub)
			keyPub := identity.Certificate.PrivateKey.(ed25519.PrivateKey).Public().(ed25519.PublicKey)
			assert.Equal(t, identity.PublicKey, keyPub)
		}
	}()

	wg.Wait()
}

func TestClientConfig_AdmissionTable(t *testing.T) {
	pub, priv := testKeypair(t)
	cfg, err := NewClientConfigFromKey(priv)
	require.NoError(t, err)

	table := domain.NewAdmissionTable()
	table.SetStake(pub, 42)
	cfg.SetAdmissionTable(table, pub)

	gotTable, gotKey := cfg.AdmissionTable()
	assert.Same(t, table, gotTable)
	assert.Equal(t, pub, gotKey)

	// Clones share the table reference.
	snapshot := cfg.clone()
	snapTable, _ := snapshot.AdmissionTable()
	assert.Same(t, table, snapTable)
}
