// Package document reads and writes the portable JSON form of a snapshot:
//
//	{"version": 1, "exportedAt": "...", "habits": [...], "areas": [...], "entries": [...]}
//
// The same document is used for export/import, the json store, and remote sync.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"habits-go/internal/habits"
	"habits-go/internal/model"
)

// CurrentVersion is written into every new document.
const CurrentVersion = 1

// Document is the on-disk shape of a snapshot.
type Document struct {
	Version    int           `json:"version"`
	ExportedAt string        `json:"exportedAt"`
	Habits     []model.Habit `json:"habits"`
	Areas      []model.Area  `json:"areas"`
	Entries    []model.Entry `json:"entries"`
}

// New builds a document for s stamped with exportedAt.
func New(s habits.Snapshot, exportedAt time.Time) *Document {
	s = s.Clone()
	d := &Document{
		Version:    CurrentVersion,
		ExportedAt: exportedAt.UTC().Format(time.RFC3339Nano),
		Habits:     s.Habits,
		Areas:      s.Areas,
		Entries:    s.Entries,
	}
	// Always write arrays, never null, so the file passes Decode.
	if d.Habits == nil {
		d.Habits = []model.Habit{}
	}
	if d.Areas == nil {
		d.Areas = []model.Area{}
	}
	if d.Entries == nil {
		d.Entries = []model.Entry{}
	}
	for i := range d.Habits {
		if d.Habits[i].ActiveDays == nil {
			d.Habits[i].ActiveDays = []int{}
		}
	}
	return d
}

// Snapshot returns the document's collections.
func (d *Document) Snapshot() habits.Snapshot {
	return habits.Snapshot{Habits: d.Habits, Areas: d.Areas, Entries: d.Entries}.Clone()
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// Decode reads and validates a document. Every validation failure is a
// *habits.FormatError; a document is either fully valid or rejected.
func Decode(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(data, source)
}

// Parse validates data as a document.
func Parse(data []byte, source string) (*Document, error) {
	bad := func(reason string, err error) error {
		return &habits.FormatError{Source: source, Reason: reason, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, bad("document is empty", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, bad("not a JSON object", err)
	}

	var d Document
	version, ok := raw["version"]
	if !ok || !isKind(version, '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9') {
		return nil, bad("missing numeric version", nil)
	}
	var v float64
	if err := json.Unmarshal(version, &v); err != nil {
		return nil, bad("missing numeric version", err)
	}
	d.Version = int(v)

	if exported, ok := raw["exportedAt"]; ok {
		// Informational only; a wrong type is ignored rather than rejected.
		_ = json.Unmarshal(exported, &d.ExportedAt)
	}

	for _, field := range []struct {
		name string
		dst  any
	}{
		{"habits", &d.Habits},
		{"areas", &d.Areas},
		{"entries", &d.Entries},
	} {
		msg, ok := raw[field.name]
		if !ok || !isKind(msg, '[') {
			return nil, bad(fmt.Sprintf("%q must be an array", field.name), nil)
		}
		if err := json.Unmarshal(msg, field.dst); err != nil {
			return nil, bad(fmt.Sprintf("invalid %s", field.name), err)
		}
	}

	snap := habits.Snapshot{Habits: d.Habits, Areas: d.Areas, Entries: d.Entries}
	if err := habits.ValidateSnapshot(snap, source); err != nil {
		return nil, err
	}
	return &d, nil
}

// isKind reports whether the first non-space byte of msg is one of starts.
func isKind(msg json.RawMessage, starts ...byte) bool {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 {
		return false
	}
	for _, c := range starts {
		if trimmed[0] == c {
			return true
		}
	}
	return false
}
