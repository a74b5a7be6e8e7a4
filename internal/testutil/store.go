package testutil

import (
	"errors"
	"sync"
	"testing"

	"habits-go/internal/habits"
	"habits-go/internal/store"
)

// ErrInjected is returned by FailingStore.
var ErrInjected = errors.New("injected store failure")

// NewTestStore creates an empty in-memory store.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// FailingStore wraps a store and fails Load or Save on demand.
type FailingStore struct {
	habits.Store

	mu       sync.Mutex
	failLoad bool
	failSave bool
	saves    int
}

// NewFailingStore wraps an in-memory store.
func NewFailingStore() *FailingStore {
	return &FailingStore{Store: store.NewMemoryStore()}
}

// FailLoad makes subsequent Load calls fail.
func (f *FailingStore) FailLoad(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failLoad = fail
}

// FailSave makes subsequent Save calls fail.
func (f *FailingStore) FailSave(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSave = fail
}

// Saves returns the number of successful saves.
func (f *FailingStore) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *FailingStore) Load() (habits.Snapshot, error) {
	f.mu.Lock()
	fail := f.failLoad
	f.mu.Unlock()
	if fail {
		return habits.Snapshot{}, ErrInjected
	}
	return f.Store.Load()
}

func (f *FailingStore) Save(s habits.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return ErrInjected
	}
	if err := f.Store.Save(s); err != nil {
		return err
	}
	f.saves++
	return nil
}

// NewTestService creates a loaded Service over a FailingStore with a fixed
// clock and sequential ids.
func NewTestService(t *testing.T) (*habits.Service, *FailingStore, *StubClock) {
	t.Helper()

	st := NewFailingStore()
	clock := FixedClock()
	svc := habits.NewService(st, habits.NewNopLogger(), clock, NewStubIDGenerator())
	if err := svc.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return svc, st, clock
}
