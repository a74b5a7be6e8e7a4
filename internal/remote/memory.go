package remote

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"habits-go/internal/habits"
)

// MemoryRemote keeps pushed documents in memory, making it useful for
// testing. This implementation is safe for concurrent use.
type MemoryRemote struct {
	name     string
	docs     map[string][]byte // hostID -> document
	versions map[string]int64  // hostID -> version
	mu       sync.RWMutex
}

// NewMemoryRemote creates an empty in-memory remote.
func NewMemoryRemote(name string) *MemoryRemote {
	return &MemoryRemote{
		name:     name,
		docs:     make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

// Name returns the remote name.
func (m *MemoryRemote) Name() string {
	return m.name
}

// Put stores the document for hostID.
func (m *MemoryRemote) Put(hostID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[hostID] = data
	m.versions[hostID] = version
	return nil
}

// Get writes the document for hostID to w.
func (m *MemoryRemote) Get(hostID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[hostID]
	if !ok {
		return fmt.Errorf("host %s: %w", hostID, habits.ErrRemoteNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Version returns the stored version for hostID, or 0.
func (m *MemoryRemote) Version(hostID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[hostID], nil
}

// ValidateSetup always succeeds for the in-memory remote.
func (m *MemoryRemote) ValidateSetup() error {
	return nil
}

var _ habits.Remote = (*MemoryRemote)(nil)
