package render

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"habits-go/internal/dates"
	"habits-go/internal/habits"
	"habits-go/internal/model"
)

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	faint = color.New(color.Faint)
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	return tbl
}

func header(tbl *uitable.Table, cols ...string) {
	cells := make([]any, len(cols))
	for i, c := range cols {
		cells[i] = bold.Sprint(c)
	}
	tbl.AddRow(cells...)
}

// Habits writes every habit grouped by area, in display order.
func Habits(w io.Writer, s habits.Snapshot) error {
	tbl := newTable()
	header(tbl, "AREA", "#", "NAME", "DAYS", "COLOR", "ID")
	for _, a := range s.SortedAreas() {
		list := s.HabitsInArea(a.ID)
		if len(list) == 0 {
			tbl.AddRow(a.Name, "", faint.Sprint("(no habits)"), "", "", "")
			continue
		}
		for i, h := range list {
			area := ""
			if i == 0 {
				area = a.Name
			}
			tbl.AddRow(area, h.Order+1, h.Name, FormatDays(h.ActiveDays), h.Color, h.ID)
		}
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Areas writes the areas in order with their habit counts.
func Areas(w io.Writer, s habits.Snapshot) error {
	tbl := newTable()
	header(tbl, "#", "NAME", "HABITS", "ID")
	for _, a := range s.SortedAreas() {
		tbl.AddRow(a.Order+1, a.Name, len(s.HabitsInArea(a.ID)), a.ID)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Day writes the habits scheduled on day with their marks and current
// streaks.
func Day(w io.Writer, s habits.Snapshot, day time.Time) error {
	if _, err := fmt.Fprintln(w, bold.Sprint(dates.FormatDisplay(day))); err != nil {
		return err
	}

	due := s.ActiveOn(day)
	if len(due) == 0 {
		_, err := fmt.Fprintln(w, faint.Sprint("Nothing scheduled."))
		return err
	}

	tbl := newTable()
	header(tbl, "", "HABIT", "AREA", "STREAK")
	for _, h := range due {
		status, marked := habits.EntryStatus(s, h.ID, day)
		area, _ := s.Area(h.AreaID)
		st := habits.ComputeStats(h, s.Entries, day)
		tbl.AddRow(StatusMark(status, marked), h.Name, area.Name, st.CurrentStreak)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// Stats writes the detail view of one habit.
func Stats(w io.Writer, h model.Habit, area model.Area, st habits.Stats) error {
	tbl := newTable()
	tbl.AddRow(bold.Sprint(h.Name), "")
	if h.Description != "" {
		tbl.AddRow("", h.Description)
	}
	tbl.AddRow("Area", area.Name)
	tbl.AddRow("Schedule", FormatDays(h.ActiveDays))
	tbl.AddRow("Since", h.CreatedAt)
	tbl.AddRow("Current streak", pluralDays(st.CurrentStreak))
	tbl.AddRow("Longest streak", pluralDays(st.LongestStreak))
	tbl.AddRow("Last 30 days", strconv.Itoa(st.CompletionRate)+"%")
	tbl.AddRow("Completed", st.TotalCompletions)
	tbl.AddRow("Failed", st.TotalFailed)
	tbl.AddRow("Scheduled days", st.TotalDays)
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// KeyValues writes label/value pairs as an aligned two-column table.
func KeyValues(w io.Writer, pairs [][2]string) error {
	tbl := newTable()
	for _, p := range pairs {
		tbl.AddRow(bold.Sprint(p[0]), p[1])
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// StatusMark renders a day's mark; an unmarked day is a dash.
func StatusMark(status model.Status, marked bool) string {
	switch {
	case !marked:
		return faint.Sprint("-")
	case status == model.StatusDone:
		return green.Sprint(MarkDone)
	case status == model.StatusFailed:
		return red.Sprint(MarkFailed)
	}
	return string(status)
}

// FormatDays describes a weekday set: "every day", "weekdays", "weekends",
// or short names in week order.
func FormatDays(days []int) string {
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	switch {
	case len(sorted) == 0:
		return "never"
	case slices.Equal(sorted, model.AllWeekdays):
		return "every day"
	case slices.Equal(sorted, []int{1, 2, 3, 4, 5}):
		return "weekdays"
	case slices.Equal(sorted, []int{0, 6}):
		return "weekends"
	}
	names := make([]string, len(sorted))
	for i, d := range sorted {
		names[i] = dates.ShortWeekdayName(d)
	}
	return strings.Join(names, " ")
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
