// Package domain holds the value types shared by the connection cache core:
// the rotatable client identity and the admission table.
package domain

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

// identityValidity is deliberately long: the certificate asserts a node
// identity and is replaced by rotation, never renewed in place.
const identityValidity = 10 * 365 * 24 * time.Hour

// ClientIdentity is the mutual-TLS identity presented on every new
// connection. Certificate and public key are always generated together from
// the same keypair; a value is immutable once built and rotation installs a
// brand-new value instead of mutating this one.
type ClientIdentity struct {
	Certificate tls.Certificate
	PublicKey   ed25519.PublicKey
}

// NewSelfSignedIdentity derives identity material from an ed25519 keypair.
// The certificate is self-signed over the public key with no host names:
// it asserts who the node is, it does not authenticate a server address.
func NewSelfSignedIdentity(key ed25519.PrivateKey) (*ClientIdentity, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length %d", len(key))
	}
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("keypair does not carry an ed25519 public key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generating certificate serial: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "conncache"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(identityValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, key)
	if err != nil {
		return nil, fmt.Errorf("creating self-signed certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing generated certificate: %w", err)
	}

	return &ClientIdentity{
		Certificate: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
			Leaf:        leaf,
		},
		PublicKey: pub,
	}, nil
}

// GenerateIdentity builds identity material from a fresh random keypair.
// Used when the caller does not supply one.
func GenerateIdentity() (*ClientIdentity, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 keypair: %w", err)
	}
	return NewSelfSignedIdentity(key)
}

// Equal reports whether two identities assert the same public key.
func (ci *ClientIdentity) Equal(other *ClientIdentity) bool {
	if ci == nil || other == nil {
		return ci == other
	}
	return bytes.Equal(ci.PublicKey, other.PublicKey)
}
