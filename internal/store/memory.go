package store

import (
	"sync"

	"habits-go/internal/habits"
)

// MemoryStore is an in-memory implementation of the habits.Store interface.
// It keeps a private copy of the last saved snapshot, making it useful for
// testing. This implementation is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	snap habits.Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the last saved snapshot.
func (m *MemoryStore) Load() (habits.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone(), nil
}

// Save replaces the stored snapshot with a copy of s.
func (m *MemoryStore) Save(s habits.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s.Clone()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

var _ habits.Store = (*MemoryStore)(nil)
