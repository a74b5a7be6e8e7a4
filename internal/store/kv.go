package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"

	"habits-go/internal/habits"
	"habits-go/internal/model"
)

// DataKey holds the whole snapshot as one JSON object, so a save replaces all
// three collections in a single write.
const DataKey = "habit-tracker-data"

// Per-collection keys of the older layout. Each value is a JSON array. They
// are read only when DataKey is absent and are removed by the next save.
const (
	HabitsKey  = "habit-tracker-habits"
	AreasKey   = "habit-tracker-areas"
	EntriesKey = "habit-tracker-entries"
)

var legacyKeys = []string{HabitsKey, AreasKey, EntriesKey}

// kvRecord is the value stored under DataKey.
type kvRecord struct {
	Habits  []model.Habit `json:"habits"`
	Areas   []model.Area  `json:"areas"`
	Entries []model.Entry `json:"entries"`
}

// KVStore keeps the snapshot in a diskv directory. A missing key is an empty
// collection.
type KVStore struct {
	dir string
	d   *diskv.Diskv
}

// NewKVStore creates a store rooted at dir.
func NewKVStore(dir string) *KVStore {
	return &KVStore{dir: dir, d: diskv.New(diskv.Options{
		BasePath:     dir,
		TempDir:      filepath.Join(dir, ".tmp"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Load reads the snapshot and rejects data that fails
// habits.ValidateSnapshot.
func (s *KVStore) Load() (habits.Snapshot, error) {
	var snap habits.Snapshot
	if s.d.Has(DataKey) {
		var rec kvRecord
		if err := s.read(DataKey, &rec); err != nil {
			return habits.Snapshot{}, err
		}
		snap = habits.Snapshot{Habits: rec.Habits, Areas: rec.Areas, Entries: rec.Entries}
	} else {
		if err := s.read(HabitsKey, &snap.Habits); err != nil {
			return habits.Snapshot{}, err
		}
		if err := s.read(AreasKey, &snap.Areas); err != nil {
			return habits.Snapshot{}, err
		}
		if err := s.read(EntriesKey, &snap.Entries); err != nil {
			return habits.Snapshot{}, err
		}
	}
	if err := habits.ValidateSnapshot(snap, s.dir); err != nil {
		return habits.Snapshot{}, err
	}
	return snap, nil
}

// Save writes the snapshot under DataKey through a temp file renamed into
// place; on error the previous value is untouched.
func (s *KVStore) Save(snap habits.Snapshot) error {
	rec := kvRecord{Habits: snap.Habits, Areas: snap.Areas, Entries: snap.Entries}
	if rec.Habits == nil {
		rec.Habits = []model.Habit{}
	}
	if rec.Areas == nil {
		rec.Areas = []model.Area{}
	}
	if rec.Entries == nil {
		rec.Entries = []model.Entry{}
	}
	if err := s.write(DataKey, rec); err != nil {
		return err
	}
	// DataKey shadows the per-collection keys; erase errors are ignored.
	for _, key := range legacyKeys {
		if s.d.Has(key) {
			_ = s.d.Erase(key)
		}
	}
	return nil
}

// Close is a no-op.
func (s *KVStore) Close() error {
	return nil
}

func (s *KVStore) read(key string, dst any) error {
	if !s.d.Has(key) {
		return nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return &habits.FormatError{Source: key, Reason: "value is not valid JSON", Err: err}
	}
	return nil
}

func (s *KVStore) write(key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.d.Write(key, val); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

var _ habits.Store = (*KVStore)(nil)
