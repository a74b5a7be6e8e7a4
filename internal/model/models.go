package model

import (
	"fmt"
	"strings"

	"habits-go/internal/dates"
)

// Status is the stored state of a marked day. An unmarked day has no Entry.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Valid reports whether s is one of the stored statuses.
func (s Status) Valid() bool {
	return s == StatusDone || s == StatusFailed
}

// Habit is a recurring activity tracked on a subset of weekdays.
type Habit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	AreaID      string `json:"areaId"`
	ActiveDays  []int  `json:"activeDays"` // 0-6, Sunday first
	CreatedAt   string `json:"createdAt"`  // YYYY-MM-DD, immutable
	Order       int    `json:"order"`      // dense within its area
}

// IsActiveOn reports whether weekday (0 = Sunday) is scheduled.
func (h Habit) IsActiveOn(weekday int) bool {
	for _, d := range h.ActiveDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with h.
func (h Habit) Clone() Habit {
	h.ActiveDays = append([]int(nil), h.ActiveDays...)
	return h
}

// Validate checks the fields a user may edit.
func (h Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if h.AreaID == "" {
		return fmt.Errorf("habit must belong to an area")
	}
	if len(h.ActiveDays) == 0 {
		return fmt.Errorf("habit needs at least one active day")
	}
	seen := make(map[int]bool, len(h.ActiveDays))
	for _, d := range h.ActiveDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid weekday %d (expected 0-6)", d)
		}
		if seen[d] {
			return fmt.Errorf("weekday %d listed twice", d)
		}
		seen[d] = true
	}
	if _, err := dates.Parse(h.CreatedAt); err != nil {
		return fmt.Errorf("invalid creation date: %w", err)
	}
	return nil
}

// Area is a named, ordered group of habits.
type Area struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"` // dense across all areas
}

// Validate checks the fields a user may edit.
func (a Area) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("area name cannot be empty")
	}
	return nil
}

// Entry records a done or failed mark for one habit on one day.
type Entry struct {
	HabitID string `json:"habitId"`
	Date    string `json:"date"` // YYYY-MM-DD
	Status  Status `json:"status"`
}

// AllWeekdays is the default schedule for a new habit.
var AllWeekdays = []int{0, 1, 2, 3, 4, 5, 6}

// Palette holds the colour tokens offered when creating a habit.
var Palette = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#f59e0b", // amber
	"#eab308", // yellow
	"#84cc16", // lime
	"#22c55e", // green
	"#10b981", // emerald
	"#14b8a6", // teal
	"#06b6d4", // cyan
	"#0ea5e9", // sky
	"#3b82f6", // blue
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#a855f7", // purple
	"#d946ef", // fuchsia
	"#ec4899", // pink
}

// DefaultColor is the palette entry preselected for new habits.
var DefaultColor = Palette[5]

// PaletteColor resolves a palette name ("green") to its token. Any other
// value is returned unchanged since colours are free-form strings.
func PaletteColor(name string) string {
	names := []string{"red", "orange", "amber", "yellow", "lime", "green", "emerald", "teal",
		"cyan", "sky", "blue", "indigo", "violet", "purple", "fuchsia", "pink"}
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Palette[i]
		}
	}
	return name
}

// DefaultAreas are shown before the user has stored anything.
func DefaultAreas() []Area {
	return []Area{
		{ID: "morning", Name: "Morning", Order: 0},
		{ID: "afternoon", Name: "Afternoon", Order: 1},
		{ID: "evening", Name: "Evening", Order: 2},
	}
}
