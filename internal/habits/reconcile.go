package habits

import (
	"cmp"
	"slices"

	"habits-go/internal/model"
)

// The functions below keep two invariants on every snapshot they return:
// habit orders within each area are exactly 0..k-1, and area orders are
// exactly 0..m-1. Operations naming an unknown habit or area return the
// input unchanged.

// AppendHabit adds h as the last habit of its area. h.Order is ignored.
func AppendHabit(s Snapshot, h model.Habit) Snapshot {
	if s.areaIndex(h.AreaID) < 0 || s.habitIndex(h.ID) >= 0 {
		return s
	}
	out := s.Clone()
	h = h.Clone()
	h.Order = len(out.areaHabitIndexes(h.AreaID, ""))
	out.Habits = append(out.Habits, h)
	return out
}

// UpdateHabit replaces the editable fields of the habit with h.ID. The id and
// creation date are kept. Changing the area moves the habit to the end of the
// new area.
func UpdateHabit(s Snapshot, h model.Habit) Snapshot {
	i := s.habitIndex(h.ID)
	if i < 0 {
		return s
	}
	prev := s.Habits[i]
	if h.AreaID != prev.AreaID && s.areaIndex(h.AreaID) < 0 {
		return s
	}

	out := s.Clone()
	h = h.Clone()
	h.CreatedAt = prev.CreatedAt
	h.Order = prev.Order
	if h.AreaID != prev.AreaID {
		h.Order = len(out.areaHabitIndexes(h.AreaID, h.ID))
	}
	out.Habits[i] = h
	if h.AreaID != prev.AreaID {
		out.renumberHabits(prev.AreaID)
	}
	return out
}

// MoveHabit moves a habit into targetAreaID at position, clamped to
// [0, count of other habits in the target area]. The target area is renumbered
// in its new sequence and the source area is compacted.
func MoveHabit(s Snapshot, habitID, targetAreaID string, position int) Snapshot {
	i := s.habitIndex(habitID)
	if i < 0 || s.areaIndex(targetAreaID) < 0 {
		return s
	}

	out := s.Clone()
	source := out.Habits[i].AreaID
	target := out.areaHabitIndexes(targetAreaID, habitID)
	position = max(0, min(position, len(target)))
	target = slices.Insert(target, position, i)

	out.Habits[i].AreaID = targetAreaID
	for order, j := range target {
		out.Habits[j].Order = order
	}
	if source != targetAreaID {
		out.renumberHabits(source)
	}
	return out
}

// ReorderHabits assigns order by position in ids to the habits of areaID.
// Ids outside the area are ignored; area habits missing from ids keep their
// relative order after the listed ones.
func ReorderHabits(s Snapshot, areaID string, ids []string) Snapshot {
	current := s.areaHabitIndexes(areaID, "")
	seq := sequence(current, ids, func(j int) string { return s.Habits[j].ID })
	if seq == nil {
		return s
	}

	out := s.Clone()
	for order, j := range seq {
		out.Habits[j].Order = order
	}
	return out
}

// DeleteHabit removes a habit and all of its entries, compacting its area.
func DeleteHabit(s Snapshot, habitID string) Snapshot {
	i := s.habitIndex(habitID)
	if i < 0 {
		return s
	}

	out := s.Clone()
	area := out.Habits[i].AreaID
	out.Habits = slices.Delete(out.Habits, i, i+1)
	out.Entries = slices.DeleteFunc(out.Entries, func(e model.Entry) bool { return e.HabitID == habitID })
	out.renumberHabits(area)
	return out
}

// AppendArea adds a as the last area. a.Order is ignored.
func AppendArea(s Snapshot, a model.Area) Snapshot {
	if s.areaIndex(a.ID) >= 0 {
		return s
	}
	out := s.Clone()
	a.Order = len(out.Areas)
	out.Areas = append(out.Areas, a)
	return out
}

// RenameArea changes an area's name.
func RenameArea(s Snapshot, areaID, name string) Snapshot {
	i := s.areaIndex(areaID)
	if i < 0 {
		return s
	}
	out := s.Clone()
	out.Areas[i].Name = name
	return out
}

// ReorderAreas assigns order by position in ids. Unknown ids are ignored;
// areas missing from ids keep their relative order after the listed ones.
func ReorderAreas(s Snapshot, ids []string) Snapshot {
	current := s.sortedAreaIndexes()
	seq := sequence(current, ids, func(j int) string { return s.Areas[j].ID })
	if seq == nil {
		return s
	}

	out := s.Clone()
	for order, j := range seq {
		out.Areas[j].Order = order
	}
	return out
}

// DeleteArea removes an area. Its habits are appended, in their existing
// order, to the surviving area with the lowest order. When no area survives
// the habits and their entries are deleted too.
func DeleteArea(s Snapshot, areaID string) Snapshot {
	i := s.areaIndex(areaID)
	if i < 0 {
		return s
	}

	out := s.Clone()
	out.Areas = slices.Delete(out.Areas, i, i+1)
	members := out.areaHabitIndexes(areaID, "")

	if target, ok := out.firstArea(); ok {
		next := len(out.areaHabitIndexes(target.ID, ""))
		for _, j := range members {
			out.Habits[j].AreaID = target.ID
			out.Habits[j].Order = next
			next++
		}
	} else {
		gone := make(map[string]bool, len(members))
		for _, j := range members {
			gone[out.Habits[j].ID] = true
		}
		out.Habits = slices.DeleteFunc(out.Habits, func(h model.Habit) bool { return gone[h.ID] })
		out.Entries = slices.DeleteFunc(out.Entries, func(e model.Entry) bool { return gone[e.HabitID] })
	}

	out.renumberAreas()
	return out
}

// Normalize restores the ordering invariants on a snapshot read from storage:
// orders are made dense (existing order wins, then slice position), habits of
// unknown areas move to the first area (or are dropped with no areas),
// entries of unknown habits and duplicate (habit, date) entries are dropped
// with the later one winning.
func Normalize(s Snapshot) Snapshot {
	out := s.Clone()
	out.renumberAreas()

	known := make(map[string]bool, len(out.Areas))
	for _, a := range out.Areas {
		known[a.ID] = true
	}
	target, hasArea := out.firstArea()
	if !hasArea {
		out.Habits = nil
	}
	next := 0
	for _, h := range out.Habits {
		if h.AreaID == target.ID {
			next = max(next, h.Order+1)
		}
	}
	for j := range out.Habits {
		if !known[out.Habits[j].AreaID] {
			out.Habits[j].AreaID = target.ID
			out.Habits[j].Order = next
			next++
		}
	}
	for _, a := range out.Areas {
		out.renumberHabits(a.ID)
	}

	habitIDs := make(map[string]bool, len(out.Habits))
	for _, h := range out.Habits {
		habitIDs[h.ID] = true
	}
	latest := make(map[entryKey]int)
	for j, e := range out.Entries {
		latest[entryKey{e.HabitID, e.Date}] = j
	}
	entries := out.Entries[:0:0]
	for j, e := range out.Entries {
		if habitIDs[e.HabitID] && latest[entryKey{e.HabitID, e.Date}] == j {
			entries = append(entries, e)
		}
	}
	out.Entries = entries
	return out
}

type entryKey struct {
	habitID string
	date    string
}

// sequence merges the requested id order with the current order: listed ids
// (that exist in current, first occurrence wins) come first, then the rest of
// current. It returns nil when no listed id matched.
func sequence(current []int, ids []string, idOf func(int) string) []int {
	pos := make(map[string]int, len(current))
	for _, j := range current {
		pos[idOf(j)] = j
	}
	var seq []int
	used := make(map[int]bool, len(current))
	for _, id := range ids {
		j, ok := pos[id]
		if !ok || used[j] {
			continue
		}
		used[j] = true
		seq = append(seq, j)
	}
	if len(seq) == 0 {
		return nil
	}
	for _, j := range current {
		if !used[j] {
			seq = append(seq, j)
		}
	}
	return seq
}

func (s Snapshot) sortedAreaIndexes() []int {
	idx := make([]int, len(s.Areas))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(s.Areas[a].Order, s.Areas[b].Order)
	})
	return idx
}

// firstArea is the area with the lowest order, ties broken by id.
func (s Snapshot) firstArea() (model.Area, bool) {
	if len(s.Areas) == 0 {
		return model.Area{}, false
	}
	return slices.MinFunc(s.Areas, func(a, b model.Area) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}), true
}

// renumberHabits and renumberAreas modify s in place; callers only use them
// on a fresh clone.
func (s Snapshot) renumberHabits(areaID string) {
	for order, j := range s.areaHabitIndexes(areaID, "") {
		s.Habits[j].Order = order
	}
}

func (s Snapshot) renumberAreas() {
	for order, j := range s.sortedAreaIndexes() {
		s.Areas[j].Order = order
	}
}
