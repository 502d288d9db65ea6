package session

import "sync"

// Store maps session IDs to conversation records. Implementations must hand
// out the same *Record for the same ID so per-record locking serializes turns
// within a session while distinct sessions proceed concurrently.
type Store interface {
	// GetOrCreate returns the record for sessionID, creating it with the
	// given persona on first sight. The persona is fixed at creation and
	// ignored on later calls.
	GetOrCreate(sessionID, persona string) *Record

	// Get returns the record for sessionID if it exists.
	Get(sessionID string) (*Record, bool)

	// Len returns the number of live sessions.
	Len() int
}

// MemoryStore is the in-process Store. Records are created on first sight and
// never evicted here; TTL/eviction is an operational concern outside this
// package.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) GetOrCreate(sessionID, persona string) *Record {
	s.mu.RLock()
	rec, ok := s.records[sessionID]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[sessionID]; ok {
		return rec
	}
	rec = newRecord(sessionID, persona)
	s.records[sessionID] = rec
	return rec
}

func (s *MemoryStore) Get(sessionID string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	return rec, ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
