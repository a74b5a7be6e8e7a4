package habits

import (
	"slices"
	"time"

	"habits-go/internal/dates"
	"habits-go/internal/model"
)

// ToggleEntry advances the mark for habitID on date through the cycle
// unmarked -> done -> failed -> unmarked. Unknown habits and days that are not
// active for the habit are left untouched.
func ToggleEntry(s Snapshot, habitID string, date time.Time) Snapshot {
	h, ok := s.Habit(habitID)
	if !ok || !h.IsActiveOn(int(date.Weekday())) {
		return s
	}

	key := dates.Format(date)
	i := slices.IndexFunc(s.Entries, func(e model.Entry) bool {
		return e.HabitID == habitID && e.Date == key
	})

	out := s.Clone()
	switch {
	case i < 0:
		out.Entries = append(out.Entries, model.Entry{HabitID: habitID, Date: key, Status: model.StatusDone})
	case out.Entries[i].Status == model.StatusDone:
		out.Entries[i].Status = model.StatusFailed
	default:
		out.Entries = slices.Delete(out.Entries, i, i+1)
	}
	return out
}

// EntryStatus returns the mark for habitID on date; ok is false when unmarked.
func EntryStatus(s Snapshot, habitID string, date time.Time) (status model.Status, ok bool) {
	key := dates.Format(date)
	for _, e := range s.Entries {
		if e.HabitID == habitID && e.Date == key {
			return e.Status, true
		}
	}
	return "", false
}
