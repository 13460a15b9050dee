// Package spiffe sources the cache's client identity from the SPIFFE
// Workload API. Nodes run inside a SPIFFE trust domain can present a
// SVID-backed certificate instead of a self-signed one; the cache consumes
// the result through the same identity value either way.
package spiffe

import (
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"fmt"

	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
	"github.com/spiffe/go-spiffe/v2/workloadapi"

	"github.com/sufield/conncache/internal/core/domain"
)

// FetchIdentity fetches the workload's default X509-SVID from the agent at
// socketPath (e.g. "unix:///tmp/spire-agent/public/api.sock") and converts
// it into cache identity material. The SVID must carry an ed25519 key so the
// identity's public key stays comparable with keypair-derived ones.
func FetchIdentity(ctx context.Context, socketPath string) (*domain.ClientIdentity, error) {
	svid, err := workloadapi.FetchX509SVID(ctx, workloadapi.WithAddr(socketPath))
	if err != nil {
		return nil, fmt.Errorf("fetching X509-SVID: %w", err)
	}
	return identityFromSVID(svid)
}

func identityFromSVID(svid *x509svid.SVID) (*domain.ClientIdentity, error) {
	if len(svid.Certificates) == 0 {
		return nil, fmt.Errorf("SVID %s carries no certificates", svid.ID)
	}
	leaf := svid.Certificates[0]
	pub, ok := leaf.PublicKey.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("SVID %s key type %T is not ed25519", svid.ID, leaf.PublicKey)
	}

	chain := make([][]byte, 0, len(svid.Certificates))
	for _, cert := range svid.Certificates {
		chain = append(chain, cert.Raw)
	}

	return &domain.ClientIdentity{
		Certificate: tls.Certificate{
			Certificate: chain,
			PrivateKey:  svid.PrivateKey,
			Leaf:        leaf,
		},
		PublicKey: pub,
	}, nil
}
