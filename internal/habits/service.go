package habits

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"habits-go/internal/dates"
	"habits-go/internal/model"
)

// SaveState describes the persistence side of the service.
type SaveState string

const (
	SaveIdle   SaveState = "idle"
	SaveSaving SaveState = "saving"
	SaveError  SaveState = "error"
)

// SaveStatus is a point-in-time view of the last write.
type SaveStatus struct {
	State     SaveState
	LastSaved time.Time
	LastErr   error
}

// HabitInput holds the user-editable fields of a habit.
type HabitInput struct {
	Name        string
	Description string
	Color       string
	AreaID      string
	ActiveDays  []int
}

// Service owns the in-memory snapshot. Each operation computes a new snapshot
// with the pure functions of this package, writes it through the Store, and
// only then makes it current. At most one write is in flight at a time.
type Service struct {
	store  Store
	logger Logger
	clock  Clock
	idgen  IDGenerator

	mu     sync.Mutex
	snap   Snapshot
	status SaveStatus
}

// NewService creates a Service. Call Load before using it.
func NewService(store Store, logger Logger, clock Clock, idgen IDGenerator) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Service{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		snap:   Snapshot{Areas: model.DefaultAreas()},
		status: SaveStatus{State: SaveIdle},
	}
}

// Load replaces the in-memory state with the stored snapshot. An empty store
// yields the default areas, which are not written until the first change.
// On failure the previous state is kept.
func (s *Service) Load() error {
	loaded, err := s.store.Load()
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded.IsEmpty() {
		s.logger.Debug("store is empty, using default areas")
		s.snap = Snapshot{Areas: model.DefaultAreas()}
		return nil
	}
	s.snap = Normalize(loaded)
	s.logger.Debug("snapshot loaded",
		"habits", len(s.snap.Habits), "areas", len(s.snap.Areas), "entries", len(s.snap.Entries))
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Status returns the current save status.
func (s *Service) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Today returns the current calendar day at midnight.
func (s *Service) Today() time.Time {
	return dates.Midnight(s.clock.Now())
}

// FindHabit looks a habit up by id, then by case-insensitive name.
func (s *Service) FindHabit(ref string) (model.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.snap.Habit(ref); ok {
		return h, true
	}
	for _, h := range s.snap.Habits {
		if strings.EqualFold(h.Name, ref) {
			return h.Clone(), true
		}
	}
	return model.Habit{}, false
}

// FindArea looks an area up by id, then by case-insensitive name.
func (s *Service) FindArea(ref string) (model.Area, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.snap.Area(ref); ok {
		return a, true
	}
	for _, a := range s.snap.Areas {
		if strings.EqualFold(a.Name, ref) {
			return a, true
		}
	}
	return model.Area{}, false
}

// AddHabit creates a habit at the end of its area.
func (s *Service) AddHabit(in HabitInput) (model.Habit, error) {
	h := model.Habit{
		ID:          s.idgen.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Color:       in.Color,
		AreaID:      in.AreaID,
		CreatedAt:   dates.Format(s.Today()),
	}
	if h.Color == "" {
		h.Color = model.DefaultColor
	}
	days := in.ActiveDays
	if days == nil {
		days = model.AllWeekdays
	}
	h.ActiveDays = append([]int{}, days...)

	err := s.apply("add habit", func(snap Snapshot) (Snapshot, error) {
		if err := validateHabit(snap, h); err != nil {
			return snap, err
		}
		return AppendHabit(snap, h), nil
	})
	if err != nil {
		return model.Habit{}, err
	}

	added, _ := s.Snapshot().Habit(h.ID)
	s.logger.Info("habit added", "id", h.ID, "name", h.Name, "area", h.AreaID)
	return added, nil
}

// UpdateHabit replaces the editable fields of an existing habit.
func (s *Service) UpdateHabit(id string, in HabitInput) (model.Habit, error) {
	err := s.apply("update habit", func(snap Snapshot) (Snapshot, error) {
		prev, ok := snap.Habit(id)
		if !ok {
			return snap, &ValidationError{Field: "habit", Reason: fmt.Sprintf("no habit with id %q", id)}
		}
		h := prev.Clone()
		h.Name = strings.TrimSpace(in.Name)
		h.Description = strings.TrimSpace(in.Description)
		h.Color = in.Color
		h.AreaID = in.AreaID
		h.ActiveDays = append([]int(nil), in.ActiveDays...)
		if err := validateHabit(snap, h); err != nil {
			return snap, err
		}
		return UpdateHabit(snap, h), nil
	})
	if err != nil {
		return model.Habit{}, err
	}

	updated, _ := s.Snapshot().Habit(id)
	s.logger.Info("habit updated", "id", id)
	return updated, nil
}

// DeleteHabit removes a habit and its entries. Unknown ids are ignored.
func (s *Service) DeleteHabit(id string) error {
	return s.apply("delete habit", func(snap Snapshot) (Snapshot, error) {
		return DeleteHabit(snap, id), nil
	})
}

// MoveHabit moves a habit into an area at position.
func (s *Service) MoveHabit(id, areaID string, position int) error {
	return s.apply("move habit", func(snap Snapshot) (Snapshot, error) {
		return MoveHabit(snap, id, areaID, position), nil
	})
}

// ReorderHabits sets the order of the habits in one area.
func (s *Service) ReorderHabits(areaID string, ids []string) error {
	return s.apply("reorder habits", func(snap Snapshot) (Snapshot, error) {
		return ReorderHabits(snap, areaID, ids), nil
	})
}

// AddArea creates an area after all existing ones.
func (s *Service) AddArea(name string) (model.Area, error) {
	a := model.Area{ID: s.idgen.New(), Name: strings.TrimSpace(name)}
	if err := a.Validate(); err != nil {
		return model.Area{}, &ValidationError{Field: "name", Reason: err.Error()}
	}
	err := s.apply("add area", func(snap Snapshot) (Snapshot, error) {
		return AppendArea(snap, a), nil
	})
	if err != nil {
		return model.Area{}, err
	}
	added, _ := s.Snapshot().Area(a.ID)
	s.logger.Info("area added", "id", a.ID, "name", a.Name)
	return added, nil
}

// RenameArea changes an area's name.
func (s *Service) RenameArea(id, name string) error {
	name = strings.TrimSpace(name)
	if err := (model.Area{Name: name}).Validate(); err != nil {
		return &ValidationError{Field: "name", Reason: err.Error()}
	}
	return s.apply("rename area", func(snap Snapshot) (Snapshot, error) {
		return RenameArea(snap, id, name), nil
	})
}

// DeleteArea removes an area, reassigning or deleting its habits.
func (s *Service) DeleteArea(id string) error {
	return s.apply("delete area", func(snap Snapshot) (Snapshot, error) {
		return DeleteArea(snap, id), nil
	})
}

// ReorderAreas sets the order of all areas.
func (s *Service) ReorderAreas(ids []string) error {
	return s.apply("reorder areas", func(snap Snapshot) (Snapshot, error) {
		return ReorderAreas(snap, ids), nil
	})
}

// ToggleEntry advances the mark for a habit on date and returns the new
// status (ok is false when the day is now unmarked). Days in the future are
// rejected; inactive days are left unmarked.
func (s *Service) ToggleEntry(habitID string, date time.Time) (status model.Status, ok bool, err error) {
	if dates.IsFuture(date, s.clock.Now()) {
		return "", false, &ValidationError{Field: "date", Reason: "cannot mark a day in the future"}
	}
	err = s.apply("toggle entry", func(snap Snapshot) (Snapshot, error) {
		next := ToggleEntry(snap, habitID, date)
		status, ok = EntryStatus(next, habitID, date)
		return next, nil
	})
	if err != nil {
		return "", false, err
	}
	s.logger.Debug("entry toggled", "habit", habitID, "date", dates.Format(date), "status", string(status))
	return status, ok, nil
}

// Stats computes the metrics of a habit as of today.
func (s *Service) Stats(habitID string) (Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.snap.Habit(habitID)
	if !ok {
		return Stats{}, false
	}
	return ComputeStats(h, s.snap.Entries, s.Today()), true
}

// Import replaces the whole state with snap after normalizing it.
func (s *Service) Import(snap Snapshot) error {
	next := Normalize(snap)
	err := s.apply("import", func(Snapshot) (Snapshot, error) {
		return next, nil
	})
	if err == nil {
		s.logger.Info("snapshot imported",
			"habits", len(next.Habits), "areas", len(next.Areas), "entries", len(next.Entries))
	}
	return err
}

// apply runs one read-modify-write cycle. The new snapshot becomes current
// only after it has been saved; unchanged snapshots are not written.
func (s *Service) apply(op string, fn func(Snapshot) (Snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.snap)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(next, s.snap) {
		s.logger.Debug("no change", "op", op)
		return nil
	}

	s.status.State = SaveSaving
	if err := s.store.Save(next); err != nil {
		s.status.State = SaveError
		s.status.LastErr = err
		s.logger.Error("save failed", "op", op, "error", err)
		return &PersistenceError{Op: "save", Err: err}
	}
	s.snap = next
	s.status = SaveStatus{State: SaveIdle, LastSaved: s.clock.Now()}
	return nil
}

func validateHabit(snap Snapshot, h model.Habit) error {
	if err := h.Validate(); err != nil {
		return &ValidationError{Field: "habit", Reason: err.Error()}
	}
	if _, ok := snap.Area(h.AreaID); !ok {
		return &ValidationError{Field: "area", Reason: fmt.Sprintf("no area with id %q", h.AreaID)}
	}
	return nil
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
