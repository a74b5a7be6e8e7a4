package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"habits-go/internal/document"
	"habits-go/internal/habits"
)

// JSONStore keeps the snapshot as a single export document on disk.
// Writes are atomic: the document is written to a temp file in the same
// directory and renamed over the target.
type JSONStore struct {
	path string
	now  func() time.Time
}

// NewJSONStore creates a store backed by the document at path. The file and
// its directory are created on first save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Path returns the document path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the document. A missing file is an empty snapshot.
func (s *JSONStore) Load() (habits.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return habits.Snapshot{}, nil
	}
	if err != nil {
		return habits.Snapshot{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	doc, err := document.Parse(data, s.path)
	if err != nil {
		return habits.Snapshot{}, err
	}
	return doc.Snapshot(), nil
}

// Save writes s as a document.
func (s *JSONStore) Save(snap habits.Snapshot) error {
	var buf bytes.Buffer
	if err := document.Encode(&buf, document.New(snap, s.now())); err != nil {
		return err
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// Close is a no-op.
func (s *JSONStore) Close() error {
	return nil
}

// writeFileAtomic writes data to path using a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ habits.Store = (*JSONStore)(nil)
