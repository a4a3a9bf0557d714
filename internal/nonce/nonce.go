// Package nonce is the at-most-once ledger behind the HMAC request
// guard. A nonce may be claimed exactly once within its TTL; a claim is
// released only when the signature it protected turns out invalid, so a
// bad signature cannot burn the legitimate client's nonce.
package nonce

import (
	"sync"
	"time"
)

// TTL outlives the 5-minute timestamp window on purpose: a replay
// arriving inside the last minute of a request's freshness window still
// finds the original claim.
const TTL = 6 * time.Minute

type Record struct {
	Nonce     string
	Path      string
	FirstSeen time.Time
}

type Store interface {
	// TryClaim atomically checks-then-inserts. Exactly one caller per
	// nonce observes claimed=true within the TTL.
	TryClaim(nonce, path string) (bool, error)
	// Release rolls back a claim after a failed signature check.
	Release(nonce string) error
}

type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Record
	ops     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ttl:     TTL,
		now:     time.Now,
		entries: make(map[string]Record),
	}
}

func (m *MemoryStore) TryClaim(nonce, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	m.ops++
	if m.ops%256 == 0 {
		m.sweepLocked(now)
	}

	if rec, ok := m.entries[nonce]; ok {
		if now.Sub(rec.FirstSeen) < m.ttl {
			return false, nil
		}
		// stale entry, fall through and reclaim
	}

	m.entries[nonce] = Record{Nonce: nonce, Path: path, FirstSeen: now}
	return true, nil
}

func (m *MemoryStore) Release(nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, nonce)
	return nil
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for k, rec := range m.entries {
		if now.Sub(rec.FirstSeen) >= m.ttl {
			delete(m.entries, k)
		}
	}
}
