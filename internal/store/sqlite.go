package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"habits-go/internal/habits"
	"habits-go/internal/model"
	"habits-go/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements habits.Store on a SQLite database. Every save
// replaces the three tables inside one transaction; rows are read back in
// insertion order so a load returns the slices as they were saved.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path (or ":memory:") and migrates it
// to the latest schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	// Foreign keys are set in the DSN so every pooled connection enforces
	// them; the SQLite default is OFF.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Load reads all areas, habits and entries and rejects rows that fail
// habits.ValidateSnapshot.
func (s *SQLiteStore) Load() (habits.Snapshot, error) {
	ctx := context.Background()
	var snap habits.Snapshot

	areaRows, err := s.db.QueryContext(ctx, "SELECT id, name, sort_order FROM areas ORDER BY rowid")
	if err != nil {
		return habits.Snapshot{}, fmt.Errorf("querying areas: %w", err)
	}
	defer areaRows.Close()
	for areaRows.Next() {
		var a model.Area
		if err := areaRows.Scan(&a.ID, &a.Name, &a.Order); err != nil {
			return habits.Snapshot{}, fmt.Errorf("scanning area: %w", err)
		}
		snap.Areas = append(snap.Areas, a)
	}
	if err := areaRows.Err(); err != nil {
		return habits.Snapshot{}, fmt.Errorf("reading areas: %w", err)
	}

	habitRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, color, area_id, active_days, created_at, sort_order
		FROM habits ORDER BY rowid`)
	if err != nil {
		return habits.Snapshot{}, fmt.Errorf("querying habits: %w", err)
	}
	defer habitRows.Close()
	for habitRows.Next() {
		var h model.Habit
		var days string
		if err := habitRows.Scan(&h.ID, &h.Name, &h.Description, &h.Color, &h.AreaID, &days, &h.CreatedAt, &h.Order); err != nil {
			return habits.Snapshot{}, fmt.Errorf("scanning habit: %w", err)
		}
		if err := json.Unmarshal([]byte(days), &h.ActiveDays); err != nil {
			return habits.Snapshot{}, &habits.FormatError{Source: s.path, Reason: fmt.Sprintf("habit %s has invalid active_days", h.ID), Err: err}
		}
		snap.Habits = append(snap.Habits, h)
	}
	if err := habitRows.Err(); err != nil {
		return habits.Snapshot{}, fmt.Errorf("reading habits: %w", err)
	}

	entryRows, err := s.db.QueryContext(ctx, "SELECT habit_id, date, status FROM entries ORDER BY rowid")
	if err != nil {
		return habits.Snapshot{}, fmt.Errorf("querying entries: %w", err)
	}
	defer entryRows.Close()
	for entryRows.Next() {
		var e model.Entry
		if err := entryRows.Scan(&e.HabitID, &e.Date, &e.Status); err != nil {
			return habits.Snapshot{}, fmt.Errorf("scanning entry: %w", err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := entryRows.Err(); err != nil {
		return habits.Snapshot{}, fmt.Errorf("reading entries: %w", err)
	}

	if err := habits.ValidateSnapshot(snap, s.path); err != nil {
		return habits.Snapshot{}, err
	}
	return snap, nil
}

// Save replaces the stored data with snap.
func (s *SQLiteStore) Save(snap habits.Snapshot) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "habits", "areas"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, a := range snap.Areas {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO areas (id, name, sort_order) VALUES (?, ?, ?)",
			a.ID, a.Name, a.Order); err != nil {
			return fmt.Errorf("inserting area %s: %w", a.ID, err)
		}
	}

	for _, h := range snap.Habits {
		days := h.ActiveDays
		if days == nil {
			days = []int{}
		}
		encoded, err := json.Marshal(days)
		if err != nil {
			return fmt.Errorf("encoding active days of %s: %w", h.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO habits (id, name, description, color, area_id, active_days, created_at, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.Name, h.Description, h.Color, h.AreaID, string(encoded), h.CreatedAt, h.Order); err != nil {
			return fmt.Errorf("inserting habit %s: %w", h.ID, err)
		}
	}

	for _, e := range snap.Entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entries (habit_id, date, status) VALUES (?, ?, ?)",
			e.HabitID, e.Date, string(e.Status)); err != nil {
			return fmt.Errorf("inserting entry %s/%s: %w", e.HabitID, e.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ habits.Store = (*SQLiteStore)(nil)
