// Package render draws habits, calendars and statistics for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"habits-go/internal/dates"
	"habits-go/internal/model"
)

// Day marks. They keep the grids readable when colour is off.
const (
	MarkDone     = "✓"
	MarkFailed   = "✗"
	MarkInactive = "·"
)

const (
	cellWidth  = 3 // "15✓"
	monthWidth = 7*cellWidth + 6
)

type calendarStyles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	plain    lipgloss.Style
	done     lipgloss.Style
	failed   lipgloss.Style
	inactive lipgloss.Style
	future   lipgloss.Style
	today    lipgloss.Style
	block    lipgloss.Style
}

func newCalendarStyles(r *lipgloss.Renderer, accent string) calendarStyles {
	return calendarStyles{
		title:    r.NewStyle().Bold(true).Width(monthWidth).Align(lipgloss.Center),
		header:   r.NewStyle().Faint(true),
		plain:    r.NewStyle(),
		done:     r.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true),
		failed:   r.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		inactive: r.NewStyle().Faint(true),
		future:   r.NewStyle().Faint(true),
		today:    r.NewStyle().Underline(true),
		block:    r.NewStyle().MarginRight(3),
	}
}

// Month writes a Sunday-first grid of one month for h.
func Month(w io.Writer, h model.Habit, entries []model.Entry, ym dates.YearMonth, today time.Time) error {
	st := newCalendarStyles(lipgloss.NewRenderer(w), h.Color)
	grid := strings.TrimRight(monthGrid(st, h, statusByDate(h.ID, entries), ym, today), "\n")
	_, err := fmt.Fprintf(w, "%s\n\n%s\n", grid, legend())
	return err
}

// Year writes the twelve months of year for h, three per row.
func Year(w io.Writer, h model.Habit, entries []model.Entry, year int, today time.Time) error {
	st := newCalendarStyles(lipgloss.NewRenderer(w), h.Color)
	byDate := statusByDate(h.ID, entries)

	var rows []string
	var row []string
	for _, ym := range dates.YearMonths(year) {
		row = append(row, st.block.Render(monthGrid(st, h, byDate, ym, today)))
		if len(row) == 3 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	_, err := fmt.Fprintf(w, "%s\n\n%s\n", lipgloss.JoinVertical(lipgloss.Left, rows...), legend())
	return err
}

func monthGrid(st calendarStyles, h model.Habit, byDate map[string]model.Status, ym dates.YearMonth, today time.Time) string {
	title := st.title.Render(fmt.Sprintf("%s %d", dates.MonthName(ym.Month), ym.Year))

	names := make([]string, 7)
	for d := range names {
		names[d] = fmt.Sprintf("%-*s", cellWidth, dates.ShortWeekdayName(d)[:2])
	}
	lines := []string{title, st.header.Render(strings.TrimRight(strings.Join(names, " "), " "))}

	offset := dates.FirstWeekdayOfMonth(ym.Year, ym.Month)
	days := dates.DaysInMonth(ym.Year, ym.Month)
	loc := today.Location()
	rows := (offset + days + 6) / 7
	for row := 0; row < rows; row++ {
		cells := make([]string, 0, 7)
		for col := 0; col < 7; col++ {
			day := row*7 + col - offset + 1
			if day < 1 || day > days {
				cells = append(cells, strings.Repeat(" ", cellWidth))
				continue
			}
			d := time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, loc)
			cells = append(cells, dayCell(st, h, byDate, d, today))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	// Pad to six weeks so months line up in the year view.
	for ; rows < 6; rows++ {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func dayCell(st calendarStyles, h model.Habit, byDate map[string]model.Status, d, today time.Time) string {
	mark, style := " ", st.plain
	switch status, marked := byDate[dates.Format(d)]; {
	case !h.IsActiveOn(int(d.Weekday())):
		mark, style = MarkInactive, st.inactive
	case dates.IsFuture(d, today):
		style = st.future
	case marked && status == model.StatusDone:
		mark, style = MarkDone, st.done
	case marked && status == model.StatusFailed:
		mark, style = MarkFailed, st.failed
	}
	if dates.IsToday(d, today) {
		style = style.Inherit(st.today)
	}
	return style.Render(fmt.Sprintf("%2d%s", d.Day(), mark))
}

func statusByDate(habitID string, entries []model.Entry) map[string]model.Status {
	out := make(map[string]model.Status)
	for _, e := range entries {
		if e.HabitID == habitID {
			out[e.Date] = e.Status
		}
	}
	return out
}

func legend() string {
	return fmt.Sprintf("%s done   %s failed   %s not scheduled", MarkDone, MarkFailed, MarkInactive)
}
