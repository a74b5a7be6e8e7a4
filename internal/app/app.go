package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"habits-go/internal/config"
	"habits-go/internal/dates"
	"habits-go/internal/document"
	"habits-go/internal/habits"
	"habits-go/internal/model"
	"habits-go/internal/remote"
	"habits-go/internal/store"
)

// ErrNoRemote is returned by sync operations when no remote is configured.
var ErrNoRemote = errors.New("no remote configured")

// HabitsApp is the application layer between the CLI and habits.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings (habit/area names or ids, dates), and releases the
// store and log file on Close.
type HabitsApp struct {
	cfg     *config.Config
	store   habits.Store
	remote  habits.Remote
	service *habits.Service
	op      *Operation
	logger  *slog.Logger
	logFile io.Closer
}

// HabitInput is a habit form as entered on the command line. Area is a name
// or id; empty means the first area.
type HabitInput struct {
	Name        string
	Description string
	Color       string
	Area        string
	Days        []int
}

// HabitChanges lists the fields to edit. Nil fields are left as they are.
type HabitChanges struct {
	Name        *string
	Description *string
	Color       *string
	Area        *string
	Days        []int
}

// MarkResult describes the outcome of Mark.
type MarkResult struct {
	Habit  model.Habit
	Date   time.Time
	Active bool // false when the habit is not scheduled on Date
	Marked bool
	Status model.Status
}

// Status summarises the local store and the remote.
type Status struct {
	HostID        string
	StoreType     string
	Save          habits.SaveStatus
	Habits        int
	Areas         int
	Entries       int
	RemoteName    string
	RemoteType    string
	RemoteVersion int64
	RemoteErr     error
}

// NewHabitsApp creates a fully wired HabitsApp from the given config and
// loads the stored snapshot. The caller must call Close when done.
func NewHabitsApp(cfg *config.Config, op *Operation, verbose bool) (*HabitsApp, error) {
	return newHabitsApp(cfg, op, verbose, habits.RealClock{}, habits.UUIDGenerator{})
}

func newHabitsApp(cfg *config.Config, op *Operation, verbose bool, clock habits.Clock, idgen habits.IDGenerator) (*HabitsApp, error) {
	if cfg.HostID == "" {
		return nil, fmt.Errorf("host_id is not set in config")
	}

	rem, err := remote.NewRemoteFromConfig(cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("creating remote: %w", err)
	}

	st, err := store.NewStoreFromConfig(cfg.Store, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if m, ok := st.(interface{ CheckMigrations() error }); ok {
		if err := m.CheckMigrations(); err != nil {
			st.Close()
			return nil, fmt.Errorf("database schema out of date: %w", err)
		}
	}

	logger, logFile, err := newLogger(cfg.LogDir, cfg.Log, op.ID, verbose)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := habits.NewService(st, &slogAdapter{l: logger}, clock, idgen)
	if err := svc.Load(); err != nil {
		logFile.Close()
		st.Close()
		return nil, fmt.Errorf("loading habits: %w", err)
	}
	logger.Debug("operation started", "command", op.String(), "store", cfg.Store.Type)

	return &HabitsApp{
		cfg:     cfg,
		store:   st,
		remote:  rem,
		service: svc,
		op:      op,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Snapshot returns a copy of the current state.
func (a *HabitsApp) Snapshot() habits.Snapshot {
	return a.service.Snapshot()
}

// Today returns the current calendar day.
func (a *HabitsApp) Today() time.Time {
	return a.service.Today()
}

// ResolveHabit finds a habit by id or case-insensitive name.
func (a *HabitsApp) ResolveHabit(ref string) (model.Habit, error) {
	h, ok := a.service.FindHabit(strings.TrimSpace(ref))
	if !ok {
		return model.Habit{}, &habits.ValidationError{Field: "habit", Reason: fmt.Sprintf("no habit named %q", ref)}
	}
	return h, nil
}

// ResolveArea finds an area by id or case-insensitive name.
func (a *HabitsApp) ResolveArea(ref string) (model.Area, error) {
	ar, ok := a.service.FindArea(strings.TrimSpace(ref))
	if !ok {
		return model.Area{}, &habits.ValidationError{Field: "area", Reason: fmt.Sprintf("no area named %q", ref)}
	}
	return ar, nil
}

// AddArea creates an area after the existing ones.
func (a *HabitsApp) AddArea(name string) (model.Area, error) {
	return a.service.AddArea(name)
}

// RenameArea renames the area ref.
func (a *HabitsApp) RenameArea(ref, name string) error {
	ar, err := a.ResolveArea(ref)
	if err != nil {
		return err
	}
	return a.service.RenameArea(ar.ID, name)
}

// DeleteArea deletes the area ref. Its habits move to the first remaining
// area, or are deleted along with their entries when none remains.
func (a *HabitsApp) DeleteArea(ref string) error {
	ar, err := a.ResolveArea(ref)
	if err != nil {
		return err
	}
	return a.service.DeleteArea(ar.ID)
}

// ReorderAreas puts the named areas first, in the given order.
func (a *HabitsApp) ReorderAreas(refs []string) error {
	return a.service.ReorderAreas(a.areaIDs(refs))
}

// AddHabit creates a habit from a CLI form.
func (a *HabitsApp) AddHabit(in HabitInput) (model.Habit, error) {
	areaID, err := a.areaIDOrFirst(in.Area)
	if err != nil {
		return model.Habit{}, err
	}
	return a.service.AddHabit(habits.HabitInput{
		Name:        in.Name,
		Description: in.Description,
		Color:       model.PaletteColor(in.Color),
		AreaID:      areaID,
		ActiveDays:  in.Days,
	})
}

// EditHabit applies changes to the habit ref.
func (a *HabitsApp) EditHabit(ref string, c HabitChanges) (model.Habit, error) {
	h, err := a.ResolveHabit(ref)
	if err != nil {
		return model.Habit{}, err
	}
	in := habits.HabitInput{
		Name:        h.Name,
		Description: h.Description,
		Color:       h.Color,
		AreaID:      h.AreaID,
		ActiveDays:  h.ActiveDays,
	}
	if c.Name != nil {
		in.Name = *c.Name
	}
	if c.Description != nil {
		in.Description = *c.Description
	}
	if c.Color != nil {
		in.Color = model.PaletteColor(*c.Color)
	}
	if c.Area != nil {
		ar, err := a.ResolveArea(*c.Area)
		if err != nil {
			return model.Habit{}, err
		}
		in.AreaID = ar.ID
	}
	if c.Days != nil {
		in.ActiveDays = c.Days
	}
	return a.service.UpdateHabit(h.ID, in)
}

// DeleteHabit deletes the habit ref and its entries.
func (a *HabitsApp) DeleteHabit(ref string) (model.Habit, error) {
	h, err := a.ResolveHabit(ref)
	if err != nil {
		return model.Habit{}, err
	}
	return h, a.service.DeleteHabit(h.ID)
}

// MoveHabit moves the habit ref into areaRef at position (0-based).
func (a *HabitsApp) MoveHabit(ref, areaRef string, position int) error {
	h, err := a.ResolveHabit(ref)
	if err != nil {
		return err
	}
	ar, err := a.ResolveArea(areaRef)
	if err != nil {
		return err
	}
	return a.service.MoveHabit(h.ID, ar.ID, position)
}

// ReorderHabits puts the named habits of areaRef first, in the given order.
func (a *HabitsApp) ReorderHabits(areaRef string, refs []string) error {
	ar, err := a.ResolveArea(areaRef)
	if err != nil {
		return err
	}
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref
		if h, ok := a.service.FindHabit(ref); ok {
			ids[i] = h.ID
		}
	}
	return a.service.ReorderHabits(ar.ID, ids)
}

// Mark advances the mark of the habit ref on rawDate: "" or "today",
// "yesterday", or YYYY-MM-DD.
func (a *HabitsApp) Mark(ref, rawDate string) (MarkResult, error) {
	h, err := a.ResolveHabit(ref)
	if err != nil {
		return MarkResult{}, err
	}
	day, err := parseDay(rawDate, a.Today())
	if err != nil {
		return MarkResult{}, &habits.ValidationError{Field: "date", Reason: err.Error()}
	}

	res := MarkResult{Habit: h, Date: day, Active: h.IsActiveOn(int(day.Weekday()))}
	if !res.Active {
		a.logger.Debug("habit not scheduled", "habit", h.ID, "date", dates.Format(day))
		return res, nil
	}
	res.Status, res.Marked, err = a.service.ToggleEntry(h.ID, day)
	if err != nil {
		return MarkResult{}, err
	}
	return res, nil
}

// HabitStats returns the habit ref, its area and its metrics as of today.
func (a *HabitsApp) HabitStats(ref string) (model.Habit, model.Area, habits.Stats, error) {
	h, err := a.ResolveHabit(ref)
	if err != nil {
		return model.Habit{}, model.Area{}, habits.Stats{}, err
	}
	st, _ := a.service.Stats(h.ID)
	ar, _ := a.Snapshot().Area(h.AreaID)
	return h, ar, st, nil
}

// Export writes the current state as a document to w.
func (a *HabitsApp) Export(w io.Writer) error {
	doc := document.New(a.Snapshot(), a.service.Now())
	if err := document.Encode(w, doc); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	return nil
}

// Import replaces the current state with the document read from r. Nothing is
// applied when the document is invalid.
func (a *HabitsApp) Import(r io.Reader, source string) error {
	doc, err := document.Decode(r, source)
	if err != nil {
		return err
	}
	return a.service.Import(doc.Snapshot())
}

// Push uploads the current state to the remote under this host's id and
// returns the version it was stored as.
func (a *HabitsApp) Push() (int64, error) {
	if a.remote == nil {
		return 0, ErrNoRemote
	}

	var buf bytes.Buffer
	if err := a.Export(&buf); err != nil {
		return 0, err
	}

	current, err := a.remote.Version(a.cfg.HostID)
	if err != nil {
		return 0, fmt.Errorf("checking remote version: %w", err)
	}
	version := current + 1

	if err := a.remote.Put(a.cfg.HostID, bytes.NewReader(buf.Bytes()), int64(buf.Len()), version); err != nil {
		return 0, fmt.Errorf("uploading to %s: %w", a.remote.Name(), err)
	}
	a.logger.Info("pushed to remote", "remote", a.remote.Name(), "version", version, "bytes", buf.Len())
	return version, nil
}

// Pull replaces the current state with the document stored on the remote for
// hostID. An empty hostID means this host.
func (a *HabitsApp) Pull(hostID string) error {
	if a.remote == nil {
		return ErrNoRemote
	}
	if hostID == "" {
		hostID = a.cfg.HostID
	}

	var buf bytes.Buffer
	if err := a.remote.Get(hostID, &buf); err != nil {
		return fmt.Errorf("downloading from %s: %w", a.remote.Name(), err)
	}
	if err := a.Import(&buf, a.remote.Name()+":"+hostID); err != nil {
		return err
	}
	a.logger.Info("pulled from remote", "remote", a.remote.Name(), "host", hostID)
	return nil
}

// Status reports the state of the store and, when configured, the remote.
func (a *HabitsApp) Status() Status {
	snap := a.Snapshot()
	s := Status{
		HostID:        a.cfg.HostID,
		StoreType:     a.cfg.Store.Type,
		Save:          a.service.Status(),
		Habits:        len(snap.Habits),
		Areas:         len(snap.Areas),
		Entries:       len(snap.Entries),
		RemoteVersion: -1,
	}
	if a.remote == nil {
		return s
	}
	s.RemoteName = a.remote.Name()
	s.RemoteType = a.cfg.Remote.Type
	s.RemoteVersion, s.RemoteErr = a.remote.Version(a.cfg.HostID)
	if s.RemoteErr != nil {
		s.RemoteVersion = -1
	}
	return s
}

// ValidateRemote checks that the configured remote is usable.
func (a *HabitsApp) ValidateRemote() error {
	if a.remote == nil {
		return ErrNoRemote
	}
	return a.remote.ValidateSetup()
}

// Close records the outcome of the operation and releases the store and
// the log file.
func (a *HabitsApp) Close() error {
	var firstErr error

	save := a.service.Status()
	a.logger.Info("operation finished", "command", a.op.String(), "status", a.op.Status, "save", string(save.State))

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// areaIDOrFirst resolves ref, or picks the first area when ref is empty.
func (a *HabitsApp) areaIDOrFirst(ref string) (string, error) {
	if strings.TrimSpace(ref) != "" {
		ar, err := a.ResolveArea(ref)
		if err != nil {
			return "", err
		}
		return ar.ID, nil
	}
	areas := a.Snapshot().SortedAreas()
	if len(areas) == 0 {
		return "", &habits.ValidationError{Field: "area", Reason: "no areas exist; add one first"}
	}
	return areas[0].ID, nil
}

// areaIDs maps names to ids. Unknown refs are passed through and ignored
// by the reorder.
func (a *HabitsApp) areaIDs(refs []string) []string {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref
		if ar, ok := a.service.FindArea(ref); ok {
			ids[i] = ar.ID
		}
	}
	return ids
}

// parseDay interprets a date argument relative to today.
func parseDay(raw string, today time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return dates.AddDays(today, -1), nil
	}
	return dates.ParseIn(strings.TrimSpace(raw), today.Location())
}
