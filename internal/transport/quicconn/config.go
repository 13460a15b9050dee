// Package quicconn implements the QUIC specialization of the connection
// cache: a rotatable client identity, a lazily bound shared local endpoint,
// and pooled connection handles built on quic-go.
package quicconn

import (
	"crypto/ed25519"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/sufield/conncache/internal/core/domain"
	"github.com/sufield/conncache/internal/core/errors"
)

const (
	// alpnProtocol names the application protocol in the TLS handshake.
	alpnProtocol = "conncache/1"

	// handshakeTimeout bounds connection establishment per dial attempt.
	handshakeTimeout = 10 * time.Second

	// defaultSendTimeout bounds a blocking façade send end to end.
	defaultSendTimeout = 10 * time.Second

	maxIdleTimeout  = 60 * time.Second
	keepAlivePeriod = 15 * time.Second
)

// ClientConfig carries the identity material and admission metadata used
// when new connections are built. The identity is copy-on-write: readers
// snapshot the reference under a shared lock, rotation installs a brand-new
// value under the exclusive lock. A torn certificate/key pair can never be
// observed because the pair lives behind a single pointer.
type ClientConfig struct {
	mu             sync.RWMutex
	identity       *domain.ClientIdentity
	admission      *domain.AdmissionTable
	identityKey    ed25519.PublicKey
	socketOverride *net.UDPConn

	// sendTimeout is the blocking façade's per-send bound.
	sendTimeout time.Duration
}

// NewClientConfig creates a config with freshly generated identity material.
func NewClientConfig() (*ClientConfig, error) {
	identity, err := domain.GenerateIdentity()
	if err != nil {
		return nil, errors.NewClientError(errors.ErrIdentityGeneration, err)
	}
	return &ClientConfig{identity: identity, sendTimeout: defaultSendTimeout}, nil
}

// NewClientConfigFromKey creates a config whose identity is derived from the
// supplied keypair.
func NewClientConfigFromKey(key ed25519.PrivateKey) (*ClientConfig, error) {
	identity, err := domain.NewSelfSignedIdentity(key)
	if err != nil {
		return nil, errors.NewClientError(errors.ErrIdentityGeneration, err)
	}
	return &ClientConfig{identity: identity, sendTimeout: defaultSendTimeout}, nil
}

// NewClientConfigFromIdentity creates a config around externally sourced
// identity material, e.g. an X509-SVID from a workload agent.
func NewClientConfigFromIdentity(identity *domain.ClientIdentity) *ClientConfig {
	return &ClientConfig{identity: identity, sendTimeout: defaultSendTimeout}
}

// UpdateIdentity regenerates certificate and key from the keypair and
// installs them wholesale. Entries already holding the old identity keep a
// valid value.
func (c *ClientConfig) UpdateIdentity(key ed25519.PrivateKey) error {
	identity, err := domain.NewSelfSignedIdentity(key)
	if err != nil {
		return errors.NewClientError(errors.ErrIdentityGeneration, err)
	}
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	return nil
}

// Identity returns the current identity snapshot.
func (c *ClientConfig) Identity() *domain.ClientIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// SetAdmissionTable swaps the opaque peer table and the local identity key
// used for admission lookups.
func (c *ClientConfig) SetAdmissionTable(table *domain.AdmissionTable, identity ed25519.PublicKey) {
	c.mu.Lock()
	c.admission = table
	c.identityKey = identity
	c.mu.Unlock()
}

// AdmissionTable returns the current peer table and local identity key.
func (c *ClientConfig) AdmissionTable() (*domain.AdmissionTable, ed25519.PublicKey) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admission, c.identityKey
}

// SetSocketOverride records a caller-supplied local socket for the shared
// endpoint to adopt instead of self-allocating one.
func (c *ClientConfig) SetSocketOverride(conn *net.UDPConn) {
	c.mu.Lock()
	c.socketOverride = conn
	c.mu.Unlock()
}

// SetSendTimeout overrides the blocking façade's per-send bound.
func (c *ClientConfig) SetSendTimeout(d time.Duration) {
	c.mu.Lock()
	c.sendTimeout = d
	c.mu.Unlock()
}

func (c *ClientConfig) currentSendTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sendTimeout
}

func (c *ClientConfig) currentSocketOverride() *net.UDPConn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.socketOverride
}

// clone returns a value snapshot of the config. The identity reference is
// deep-copied as a reference, not as contents, so pools and entries created
// at different times observe different identities without re-locking.
func (c *ClientConfig) clone() *ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &ClientConfig{
		identity:       c.identity,
		admission:      c.admission,
		identityKey:    c.identityKey,
		socketOverride: c.socketOverride,
		sendTimeout:    c.sendTimeout,
	}
}

// tlsConfigFor builds the client TLS config presenting the given identity.
// Peer certificates are asserted, not verified, at this layer; the wrapped
// protocol's handshake carries them to the admission logic server-side.
func tlsConfigFor(identity *domain.ClientIdentity) *tls.Config {
	return &tls.Config{
		Certificates:       []tls.Certificate{identity.Certificate},
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
		MinVersion:         tls.VersionTLS13,
	}
}

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:       maxIdleTimeout,
		KeepAlivePeriod:      keepAlivePeriod,
		HandshakeIdleTimeout: handshakeTimeout,
	}
}
