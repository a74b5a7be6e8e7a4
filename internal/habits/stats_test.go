package habits

import (
	"testing"
	"time"

	"habits-go/internal/dates"
	"habits-go/internal/model"
)

// monday is 2024-01-15.
var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func statsHabit(days ...int) model.Habit {
	return model.Habit{ID: "h", Name: "H", AreaID: "a", ActiveDays: days, CreatedAt: "2024-01-01"}
}

func marks(status model.Status, days ...string) []model.Entry {
	out := make([]model.Entry, len(days))
	for i, d := range days {
		out[i] = model.Entry{HabitID: "h", Date: d, Status: status}
	}
	return out
}

func entries(groups ...[]model.Entry) []model.Entry {
	var out []model.Entry
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var everyDay = []int{0, 1, 2, 3, 4, 5, 6}

// doneRun marks n consecutive days done, the last one being end.
func doneRun(end time.Time, n int) []model.Entry {
	out := make([]model.Entry, n)
	for i := range out {
		out[i] = model.Entry{HabitID: "h", Date: dates.Format(dates.AddDays(end, i-n+1)), Status: model.StatusDone}
	}
	return out
}

func TestComputeStats_CurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		days    []int
		entries []model.Entry
		want    int
	}{
		{
			name:    "today unmarked is a grace day",
			days:    everyDay,
			entries: marks(model.StatusDone, "2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"),
			want:    5,
		},
		{
			name: "yesterday failed breaks the streak",
			days: everyDay,
			entries: entries(
				marks(model.StatusDone, "2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13"),
				marks(model.StatusFailed, "2024-01-14"),
			),
			want: 0,
		},
		{
			name:    "yesterday unmarked breaks the streak",
			days:    everyDay,
			entries: marks(model.StatusDone, "2024-01-12", "2024-01-13"),
			want:    0,
		},
		{
			name:    "today done counts",
			days:    everyDay,
			entries: marks(model.StatusDone, "2024-01-14", "2024-01-15"),
			want:    2,
		},
		{
			name:    "today failed is zero",
			days:    everyDay,
			entries: entries(marks(model.StatusDone, "2024-01-14"), marks(model.StatusFailed, "2024-01-15")),
			want:    0,
		},
		{
			name:    "inactive days are skipped",
			days:    []int{1, 2, 3, 4, 5},
			entries: marks(model.StatusDone, "2024-01-10", "2024-01-11", "2024-01-12"),
			want:    3,
		},
		{
			name:    "no entries",
			days:    everyDay,
			entries: nil,
			want:    0,
		},
		{
			name:    "walk stops after 366 days",
			days:    everyDay,
			entries: doneRun(monday, 500),
			want:    366,
		},
		{
			name:    "walk stops after 366 days with today unmarked",
			days:    everyDay,
			entries: doneRun(monday.AddDate(0, 0, -1), 500),
			want:    365,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(statsHabit(tt.days...), tt.entries, monday)
			if got.CurrentStreak != tt.want {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.want)
			}
		})
	}
}

func TestComputeStats_LongestStreak(t *testing.T) {
	tests := []struct {
		name        string
		entries     []model.Entry
		wantLongest int
		wantCurrent int
	}{
		{
			name: "longest run in the past",
			entries: entries(
				marks(model.StatusDone, "2024-01-01", "2024-01-02", "2024-01-03"),
				marks(model.StatusFailed, "2024-01-04"),
				marks(model.StatusDone, "2024-01-05", "2024-01-06"),
			),
			wantLongest: 3,
			wantCurrent: 0,
		},
		{
			name: "unmarked day splits runs",
			entries: marks(model.StatusDone,
				"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"),
			wantLongest: 4,
			wantCurrent: 0,
		},
		{
			name:        "longest run is not bounded by the lookback",
			entries:     doneRun(monday, 500),
			wantLongest: 500,
			wantCurrent: 366,
		},
		{
			name: "current streak is a lower bound",
			entries: marks(model.StatusDone,
				"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09",
				"2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"),
			wantLongest: 10,
			wantCurrent: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(statsHabit(everyDay...), tt.entries, monday)
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak < got.CurrentStreak {
				t.Errorf("LongestStreak %d < CurrentStreak %d", got.LongestStreak, got.CurrentStreak)
			}
		})
	}
}

func TestComputeStats_CompletionRate(t *testing.T) {
	sunday := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		days    []int
		entries []model.Entry
		today   time.Time
		want    int
	}{
		{
			// Window 2023-12-15..2024-01-14 holds four Mondays.
			name:    "mondays only",
			days:    []int{1},
			entries: marks(model.StatusDone, "2023-12-18", "2024-01-01", "2024-01-08"),
			today:   sunday,
			want:    75,
		},
		{
			// Eight Tuesdays and Wednesdays in the window, one done: 12.5%.
			name:    "halves round up",
			days:    []int{2, 3},
			entries: marks(model.StatusDone, "2024-01-10"),
			today:   monday,
			want:    13,
		},
		{
			name:    "failed and out of window entries do not count",
			days:    []int{1},
			entries: entries(marks(model.StatusDone, "2023-12-11"), marks(model.StatusFailed, "2024-01-08")),
			today:   sunday,
			want:    0,
		},
		{
			name:    "no entries",
			days:    everyDay,
			entries: nil,
			today:   monday,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(statsHabit(tt.days...), tt.entries, tt.today)
			if got.CompletionRate != tt.want {
				t.Errorf("CompletionRate = %d, want %d", got.CompletionRate, tt.want)
			}
		})
	}
}

func TestComputeStats_Totals(t *testing.T) {
	h := statsHabit(1, 2, 3, 4, 5)
	es := entries(
		marks(model.StatusDone, "2024-01-02", "2024-01-03", "2024-01-04"),
		marks(model.StatusFailed, "2024-01-05"),
		[]model.Entry{{HabitID: "other", Date: "2024-01-05", Status: model.StatusDone}},
	)

	got := ComputeStats(h, es, monday)
	if got.TotalCompletions != 3 {
		t.Errorf("TotalCompletions = %d, want 3", got.TotalCompletions)
	}
	if got.TotalFailed != 1 {
		t.Errorf("TotalFailed = %d, want 1", got.TotalFailed)
	}
	// Weekdays from Mon 2024-01-01 to Mon 2024-01-15.
	if got.TotalDays != 11 {
		t.Errorf("TotalDays = %d, want 11", got.TotalDays)
	}
}

func TestComputeStats_NoActiveDays(t *testing.T) {
	es := entries(
		marks(model.StatusDone, "2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14", "2024-01-15"),
		marks(model.StatusFailed, "2024-01-09"),
	)

	for _, days := range [][]int{nil, {}} {
		got := ComputeStats(statsHabit(days...), es, monday)
		if got.CurrentStreak != 0 || got.LongestStreak != 0 || got.CompletionRate != 0 || got.TotalDays != 0 {
			t.Errorf("ComputeStats(no active days) = %+v, want zero streaks, rate and days", got)
		}
	}
}
