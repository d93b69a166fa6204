// Package store defines the ChallengeStore capability set (§4.3) and a
// mutex-guarded in-memory reference implementation, grounded on the
// teacher's RateLimiter: a plain map protected by a single mutex, with
// lazy TTL enforcement on read rather than a background reaper.
package store

import (
	"sync"
	"time"

	"github.com/agentauth/core/pkg/models"
)

// ChallengeStore is the capability set every backend must provide.
// Implementations must honor TTL on read: an expired entry appears
// absent even if it has not yet been physically removed.
//
// Delete must behave as an atomic compare-and-delete with respect to
// concurrent Get/Delete on the same id — of two concurrent Delete calls
// racing on the same id, at most one may observe ok=true (§5).
type ChallengeStore interface {
	Set(id string, record models.ChallengeRecord, ttl time.Duration) error
	Get(id string) (models.ChallengeRecord, bool, error)
	// Delete removes id if present and returns whether it was present.
	// Deletion plus presence-check happen atomically with respect to
	// other Delete/Get calls, giving solve's single-use guarantee.
	Delete(id string) (models.ChallengeRecord, bool, error)
}

type entry struct {
	record    models.ChallengeRecord
	expiresAt time.Time
}

// MemoryStore is the in-memory reference ChallengeStore: a map guarded
// by a single mutex, matching the teacher's ipBucket/RateLimiter
// pattern. It never runs a background reaper — expired entries are
// reclaimed lazily on the next Get/Delete that touches them.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewMemoryStore returns an empty MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

// Set stores record under id with the given TTL, overwriting any
// previous entry for id.
func (s *MemoryStore) Set(id string, record models.ChallengeRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{record: record, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get returns the record for id if present and unexpired.
func (s *MemoryStore) Get(id string) (models.ChallengeRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return models.ChallengeRecord{}, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		return models.ChallengeRecord{}, false, nil
	}
	return e.record, true, nil
}

// Delete atomically removes and returns the record for id, if present
// and unexpired. Holding the single mutex across the presence check and
// removal is what gives solve its single-use guarantee under
// concurrent requests for the same id (§5).
func (s *MemoryStore) Delete(id string) (models.ChallengeRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return models.ChallengeRecord{}, false, nil
	}
	delete(s.entries, id)
	if time.Now().After(e.expiresAt) {
		return models.ChallengeRecord{}, false, nil
	}
	return e.record, true, nil
}

// Len reports the number of entries currently held, expired or not —
// exposed for tests, not part of ChallengeStore.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
