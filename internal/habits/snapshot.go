package habits

import (
	"cmp"
	"slices"
	"time"

	"habits-go/internal/model"
)

// Snapshot is the complete habit/area/entry state at one point in time.
// Functions in this package never modify a Snapshot in place; they return
// a new one.
type Snapshot struct {
	Habits  []model.Habit
	Areas   []model.Area
	Entries []model.Entry
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Areas:   append([]model.Area(nil), s.Areas...),
		Entries: append([]model.Entry(nil), s.Entries...),
	}
	for _, h := range s.Habits {
		out.Habits = append(out.Habits, h.Clone())
	}
	return out
}

// IsEmpty reports whether nothing has been stored yet.
func (s Snapshot) IsEmpty() bool {
	return len(s.Habits) == 0 && len(s.Areas) == 0 && len(s.Entries) == 0
}

// Habit returns the habit with the given id.
func (s Snapshot) Habit(id string) (model.Habit, bool) {
	if i := s.habitIndex(id); i >= 0 {
		return s.Habits[i].Clone(), true
	}
	return model.Habit{}, false
}

// Area returns the area with the given id.
func (s Snapshot) Area(id string) (model.Area, bool) {
	if i := s.areaIndex(id); i >= 0 {
		return s.Areas[i], true
	}
	return model.Area{}, false
}

// SortedAreas returns the areas by ascending order.
func (s Snapshot) SortedAreas() []model.Area {
	areas := append([]model.Area(nil), s.Areas...)
	slices.SortStableFunc(areas, func(a, b model.Area) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return areas
}

// HabitsInArea returns the area's habits by ascending order.
func (s Snapshot) HabitsInArea(areaID string) []model.Habit {
	idx := s.areaHabitIndexes(areaID, "")
	out := make([]model.Habit, len(idx))
	for i, j := range idx {
		out[i] = s.Habits[j].Clone()
	}
	return out
}

// ActiveOn returns the habits scheduled on day's weekday, in area order and
// then habit order.
func (s Snapshot) ActiveOn(day time.Time) []model.Habit {
	var out []model.Habit
	for _, a := range s.SortedAreas() {
		for _, h := range s.HabitsInArea(a.ID) {
			if h.IsActiveOn(int(day.Weekday())) {
				out = append(out, h)
			}
		}
	}
	return out
}

// EntriesFor returns the entries recorded for one habit.
func (s Snapshot) EntriesFor(habitID string) []model.Entry {
	var out []model.Entry
	for _, e := range s.Entries {
		if e.HabitID == habitID {
			out = append(out, e)
		}
	}
	return out
}

func (s Snapshot) habitIndex(id string) int {
	return slices.IndexFunc(s.Habits, func(h model.Habit) bool { return h.ID == id })
}

func (s Snapshot) areaIndex(id string) int {
	return slices.IndexFunc(s.Areas, func(a model.Area) bool { return a.ID == id })
}

// areaHabitIndexes returns indexes into s.Habits of the habits in areaID,
// ordered by Order with slice position breaking ties. exclude is skipped.
func (s Snapshot) areaHabitIndexes(areaID, exclude string) []int {
	var idx []int
	for i, h := range s.Habits {
		if h.AreaID == areaID && h.ID != exclude {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(s.Habits[a].Order, s.Habits[b].Order)
	})
	return idx
}
