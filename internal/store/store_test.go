package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"habits-go/internal/config"
	"habits-go/internal/habits"
	"habits-go/internal/model"
)

func sampleSnapshot() habits.Snapshot {
	return habits.Snapshot{
		Areas: []model.Area{
			{ID: "morning", Name: "Morning", Order: 0},
			{ID: "evening", Name: "Evening", Order: 1},
		},
		Habits: []model.Habit{
			{ID: "h1", Name: "Run", Description: "5k", Color: "#22c55e", AreaID: "morning", ActiveDays: []int{1, 3, 5}, CreatedAt: "2024-01-01", Order: 0},
			{ID: "h2", Name: "Read", Color: "#3b82f6", AreaID: "evening", ActiveDays: []int{0, 1, 2, 3, 4, 5, 6}, CreatedAt: "2024-01-02", Order: 0},
		},
		Entries: []model.Entry{
			{HabitID: "h1", Date: "2024-01-01", Status: model.StatusDone},
			{HabitID: "h1", Date: "2024-01-03", Status: model.StatusFailed},
			{HabitID: "h2", Date: "2024-01-02", Status: model.StatusDone},
		},
	}
}

// backends returns a fresh instance of every store implementation.
func backends(t *testing.T) map[string]habits.Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "habits.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	stores := map[string]habits.Store{
		"memory": NewMemoryStore(),
		"json":   NewJSONStore(filepath.Join(dir, "json", "habits.json")),
		"kv":     NewKVStore(filepath.Join(dir, "kv")),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStores_EmptyLoad(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !got.IsEmpty() {
				t.Errorf("Load() on a fresh store = %+v, want empty", got)
			}
		})
	}
}

func TestStores_SaveLoad(t *testing.T) {
	want := sampleSnapshot()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStores_SaveReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(sampleSnapshot()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			smaller := sampleSnapshot()
			smaller.Habits = smaller.Habits[:1]
			smaller.Entries = smaller.Entries[:2]
			if err := s.Save(smaller); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}

			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got.Habits) != 1 || len(got.Entries) != 2 {
				t.Errorf("Load() = %d habits, %d entries, want 1, 2", len(got.Habits), len(got.Entries))
			}
		})
	}
}

func TestStores_LoadReturnsCopy(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			snap := sampleSnapshot()
			if err := s.Save(snap); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			snap.Habits[0].Name = "changed after save"

			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			got.Habits[0].ActiveDays[0] = 6

			again, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if again.Habits[0].Name != "Run" || again.Habits[0].ActiveDays[0] != 1 {
				t.Errorf("stored habit was modified through a caller's copy: %+v", again.Habits[0])
			}
		})
	}
}

func TestJSONStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")

	if err := NewJSONStore(path).Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Habits) != 2 {
		t.Errorf("len(Habits) = %d, want 2", len(got.Habits))
	}

	// No temp files are left behind.
	files, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("directory has %d files, want 1", len(files))
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")
	if err := os.WriteFile(path, []byte(`{"version": 1, "habits": {}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewJSONStore(path).Load()
	var fe *habits.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Load() error = %v, want *habits.FormatError", err)
	}
	if fe.Source != path {
		t.Errorf("FormatError.Source = %q, want %q", fe.Source, path)
	}
}

func TestKVStore_Keys(t *testing.T) {
	dir := t.TempDir()
	s := NewKVStore(dir)
	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, DataKey)); err != nil {
		t.Errorf("key %s not written: %v", DataKey, err)
	}
	for _, key := range []string{HabitsKey, AreasKey, EntriesKey} {
		if _, err := os.Stat(filepath.Join(dir, key)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("per-collection key %s exists after save: %v", key, err)
		}
	}
}

// writeCollections stores snap in the per-collection layout.
func writeCollections(t *testing.T, dir string, snap habits.Snapshot) {
	t.Helper()
	for key, v := range map[string]any{
		HabitsKey:  snap.Habits,
		AreasKey:   snap.Areas,
		EntriesKey: snap.Entries,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, key), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestKVStore_ReadsPerCollectionKeys(t *testing.T) {
	dir := t.TempDir()
	writeCollections(t, dir, sampleSnapshot())

	got, err := NewKVStore(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(sampleSnapshot(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	smaller := sampleSnapshot()
	smaller.Habits = smaller.Habits[:1]
	smaller.Entries = smaller.Entries[:2]
	if err := NewKVStore(dir).Save(smaller); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = NewKVStore(dir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(smaller, got); diff != "" {
		t.Errorf("Load() after save mismatch (-want +got):\n%s", diff)
	}
}

// blockTempDir makes the store's temp directory unusable so writes fail.
func blockTempDir(t *testing.T, dir string) {
	t.Helper()
	tmp := filepath.Join(dir, ".tmp")
	if err := os.RemoveAll(tmp); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tmp, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestKVStore_FailedSaveKeepsPrevious(t *testing.T) {
	changed := sampleSnapshot()
	changed.Areas = changed.Areas[1:]
	changed.Areas[0].Order = 0
	changed.Habits = changed.Habits[1:]
	changed.Entries = nil

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "combined key",
			setup: func(t *testing.T, dir string) {
				if err := NewKVStore(dir).Save(sampleSnapshot()); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			},
		},
		{
			name: "per-collection keys",
			setup: func(t *testing.T, dir string) {
				writeCollections(t, dir, sampleSnapshot())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			blockTempDir(t, dir)

			if err := NewKVStore(dir).Save(changed); err == nil {
				t.Fatal("Save() expected error")
			}

			got, err := NewKVStore(dir).Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(sampleSnapshot(), got); diff != "" {
				t.Errorf("Load() after failed save mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// corruptions returns snapshots that decode but fail shape validation.
func corruptions() map[string]habits.Snapshot {
	badDay := sampleSnapshot()
	badDay.Habits[0].ActiveDays = []int{0, 1, 9}

	badCreated := sampleSnapshot()
	badCreated.Habits[1].CreatedAt = "nope"

	badDate := sampleSnapshot()
	badDate.Entries[0].Date = "garbage"

	badStatus := sampleSnapshot()
	badStatus.Entries[2].Status = "maybe"

	danglingArea := sampleSnapshot()
	danglingArea.Habits[0].AreaID = "nowhere"

	return map[string]habits.Snapshot{
		"weekday out of range":   badDay,
		"unparseable createdAt":  badCreated,
		"unparseable entry date": badDate,
		"unknown status":         badStatus,
		"unknown area":           danglingArea,
	}
}

func TestKVStore_CorruptData(t *testing.T) {
	for name, snap := range corruptions() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			rec := kvRecord{Habits: snap.Habits, Areas: snap.Areas, Entries: snap.Entries}
			data, err := json.Marshal(rec)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, DataKey), data, 0644); err != nil {
				t.Fatal(err)
			}

			_, err = NewKVStore(dir).Load()
			var fe *habits.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Load() error = %v, want *habits.FormatError", err)
			}
			if fe.Source != dir {
				t.Errorf("FormatError.Source = %q, want %q", fe.Source, dir)
			}
		})
	}

	t.Run("per-collection keys", func(t *testing.T) {
		dir := t.TempDir()
		writeCollections(t, dir, corruptions()["unknown status"])

		_, err := NewKVStore(dir).Load()
		var fe *habits.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("Load() error = %v, want *habits.FormatError", err)
		}
	})
}

func TestSQLiteStore_CorruptRows(t *testing.T) {
	tests := []struct {
		name string
		stmt string
	}{
		{"weekday out of range", `UPDATE habits SET active_days = '[0,1,9]' WHERE id = 'h1'`},
		{"unparseable createdAt", `UPDATE habits SET created_at = 'nope' WHERE id = 'h2'`},
		{"unparseable entry date", `UPDATE entries SET date = 'garbage' WHERE habit_id = 'h2'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSQLiteStore(":memory:")
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			defer s.Close()

			if err := s.Save(sampleSnapshot()); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := s.db.Exec(tt.stmt); err != nil {
				t.Fatalf("Exec() error = %v", err)
			}

			_, err = s.Load()
			var fe *habits.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Load() error = %v, want *habits.FormatError", err)
			}
			if fe.Source != ":memory:" {
				t.Errorf("FormatError.Source = %q, want %q", fe.Source, ":memory:")
			}
		})
	}
}

func TestKVStore_CorruptValue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, AreasKey), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewKVStore(dir).Load()
	var fe *habits.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Load() error = %v, want *habits.FormatError", err)
	}
}

func TestSQLiteStore_Memory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Entries) != 3 {
		t.Errorf("len(Entries) = %d, want 3", len(got.Entries))
	}
}

func TestSQLiteStore_RejectsDanglingHabit(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if err := s.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	bad := sampleSnapshot()
	bad.Habits[0].AreaID = "nowhere"
	if err := s.Save(bad); err == nil {
		t.Fatal("Save() expected foreign key error")
	}

	// The failed transaction left the previous data in place.
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(sampleSnapshot(), got); diff != "" {
		t.Errorf("Load() after failed save mismatch (-want +got):\n%s", diff)
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Type: "memory"}, false},
		{"json", config.StoreConfig{Type: "json", Path: filepath.Join(dir, "h.json")}, false},
		{"json without path", config.StoreConfig{Type: "json"}, true},
		{"kv", config.StoreConfig{Type: "kv", KVDir: filepath.Join(dir, "kv")}, false},
		{"kv without kv_dir", config.StoreConfig{Type: "kv"}, true},
		{"sqlite", config.StoreConfig{Type: "sqlite", DataDir: dir}, false},
		{"sqlite without data_dir", config.StoreConfig{Type: "sqlite"}, true},
		{"unknown", config.StoreConfig{Type: "postgres"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(tt.cfg, "test-host")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Error("NewStoreFromConfig() should return nil on error")
				}
				return
			}
			defer got.Close()
			if _, err := got.Load(); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "test-host.db")); err != nil {
		t.Errorf("sqlite database not created under data_dir: %v", err)
	}
}
