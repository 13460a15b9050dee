package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelfSignedIdentity(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	identity, err := NewSelfSignedIdentity(priv)
	require.NoError(t, err)

	assert.Equal(t, pub, identity.PublicKey)
	require.NotNil(t, identity.Certificate.Leaf)

	// The certificate asserts the same keypair it was generated with.
	leafPub, ok := identity.Certificate.Leaf.PublicKey.(ed25519.PublicKey)
	require.True(t, ok, "leaf public key should be ed25519")
	assert.Equal(t, pub, leafPub)

	assert.Contains(t, identity.Certificate.Leaf.ExtKeyUsage, x509.ExtKeyUsageClientAuth)
	assert.Empty(t, identity.Certificate.Leaf.DNSNames)
}

func TestNewSelfSignedIdentity_InvalidKey(t *testing.T) {
	_, err := NewSelfSignedIdentity(make([]byte, 7))
	assert.Error(t, err)
}

func TestGenerateIdentity_Distinct(t *testing.T) {
	a, err := GenerateIdentity()
	require.NoError(t, err)
	b, err := GenerateIdentity()
	require.NoError(t, err)

	assert.False(t, a.Equal(b), "fresh identities should carry distinct keys")
	assert.True(t, a.Equal(a))
}

func TestClientIdentity_EqualNil(t *testing.T) {
	identity, err := GenerateIdentity()
	require.NoError(t, err)

	var nilIdentity *ClientIdentity
	assert.False(t, identity.Equal(nil))
	assert.True(t, nilIdentity.Equal(nil))
}
