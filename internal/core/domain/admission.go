package domain

import (
	"crypto/ed25519"
	"sync"
)

// AdmissionTable is the opaque stake-weighted peer table consulted by the
// transport layer for connection prioritization. The cache stores a shared
// reference and hands it to new connection configs; it never interprets or
// enforces the weights itself.
type AdmissionTable struct {
	mu         sync.RWMutex
	stakes     map[string]uint64
	totalStake uint64
}

// NewAdmissionTable creates an empty admission table.
func NewAdmissionTable() *AdmissionTable {
	return &AdmissionTable{stakes: make(map[string]uint64)}
}

// SetStake records the stake weight for a peer, replacing any previous value.
func (t *AdmissionTable) SetStake(key ed25519.PublicKey, stake uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(key)
	t.totalStake -= t.stakes[k]
	t.stakes[k] = stake
	t.totalStake += stake
}

// Stake returns the recorded stake weight for a peer, zero if unknown.
func (t *AdmissionTable) Stake(key ed25519.PublicKey) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stakes[string(key)]
}

// TotalStake returns the sum of all recorded stake weights.
func (t *AdmissionTable) TotalStake() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalStake
}

// Len returns the number of peers in the table.
func (t *AdmissionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.stakes)
}
