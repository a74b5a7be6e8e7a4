package habits

import (
	"fmt"

	"habits-go/internal/dates"
)

// ValidateSnapshot checks the shape of loaded or imported data: ids are
// present and unique, habits reference known areas, weekdays are 0..6,
// dates parse, entry statuses are known and no habit has two entries for one
// day. Orders are not checked; Normalize repairs them. A failure is a
// *FormatError naming source.
func ValidateSnapshot(s Snapshot, source string) error {
	if err := validateShape(s); err != nil {
		return &FormatError{Source: source, Reason: err.Error()}
	}
	return nil
}

func validateShape(s Snapshot) error {
	areas := make(map[string]bool, len(s.Areas))
	for i, a := range s.Areas {
		if a.ID == "" {
			return fmt.Errorf("area %d has no id", i)
		}
		if areas[a.ID] {
			return fmt.Errorf("duplicate area id %q", a.ID)
		}
		areas[a.ID] = true
	}

	habitIDs := make(map[string]bool, len(s.Habits))
	for i, h := range s.Habits {
		if h.ID == "" {
			return fmt.Errorf("habit %d has no id", i)
		}
		if habitIDs[h.ID] {
			return fmt.Errorf("duplicate habit id %q", h.ID)
		}
		habitIDs[h.ID] = true
		if !areas[h.AreaID] {
			return fmt.Errorf("habit %q references unknown area %q", h.ID, h.AreaID)
		}
		for _, day := range h.ActiveDays {
			if day < 0 || day > 6 {
				return fmt.Errorf("habit %q has invalid weekday %d", h.ID, day)
			}
		}
		if _, err := dates.Parse(h.CreatedAt); err != nil {
			return fmt.Errorf("habit %q: %v", h.ID, err)
		}
	}

	seen := make(map[[2]string]bool, len(s.Entries))
	for _, e := range s.Entries {
		if !habitIDs[e.HabitID] {
			return fmt.Errorf("entry references unknown habit %q", e.HabitID)
		}
		if !e.Status.Valid() {
			return fmt.Errorf("entry %s/%s has invalid status %q", e.HabitID, e.Date, e.Status)
		}
		if _, err := dates.Parse(e.Date); err != nil {
			return fmt.Errorf("entry for habit %q: %v", e.HabitID, err)
		}
		key := [2]string{e.HabitID, e.Date}
		if seen[key] {
			return fmt.Errorf("duplicate entry for habit %q on %s", e.HabitID, e.Date)
		}
		seen[key] = true
	}
	return nil
}
