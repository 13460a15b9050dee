package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) ed25519.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func TestAdmissionTable_SetStake(t *testing.T) {
	table := NewAdmissionTable()
	alice := testKey(t)
	bob := testKey(t)

	table.SetStake(alice, 100)
	table.SetStake(bob, 50)

	assert.Equal(t, uint64(100), table.Stake(alice))
	assert.Equal(t, uint64(50), table.Stake(bob))
	assert.Equal(t, uint64(150), table.TotalStake())
	assert.Equal(t, 2, table.Len())

	// Replacing a stake adjusts the total, it does not accumulate.
	table.SetStake(alice, 10)
	assert.Equal(t, uint64(10), table.Stake(alice))
	assert.Equal(t, uint64(60), table.TotalStake())
}

func TestAdmissionTable_UnknownPeer(t *testing.T) {
	table := NewAdmissionTable()
	assert.Equal(t, uint64(0), table.Stake(testKey(t)))
	assert.Equal(t, uint64(0), table.TotalStake())
}
