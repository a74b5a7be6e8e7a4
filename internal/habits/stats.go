package habits

import (
	"slices"
	"time"

	"habits-go/internal/dates"
	"habits-go/internal/model"
)

const (
	// completionWindowDays is how far back the completion rate looks; the
	// window [today-30, today] is inclusive.
	completionWindowDays = 30

	// streakLookbackDays bounds the backward current-streak walk.
	streakLookbackDays = 366
)

// Stats are the metrics derived from a habit's entries.
type Stats struct {
	CurrentStreak    int
	LongestStreak    int
	CompletionRate   int // percent over the last 30 days
	TotalCompletions int
	TotalFailed      int
	TotalDays        int // active days since creation
}

// ComputeStats derives a habit's metrics from entries as of today. Entries
// belonging to other habits are ignored. The habit's current ActiveDays are
// applied to the whole history.
func ComputeStats(h model.Habit, entries []model.Entry, today time.Time) Stats {
	today = dates.Midnight(today)

	byDate := make(map[string]model.Status)
	var doneDates []string
	var stats Stats
	for _, e := range entries {
		if e.HabitID != h.ID {
			continue
		}
		byDate[e.Date] = e.Status
		switch e.Status {
		case model.StatusDone:
			stats.TotalCompletions++
			doneDates = append(doneDates, e.Date)
		case model.StatusFailed:
			stats.TotalFailed++
		}
	}

	active := func(d time.Time) bool { return h.IsActiveOn(int(d.Weekday())) }
	status := func(d time.Time) (model.Status, bool) {
		st, ok := byDate[dates.Format(d)]
		return st, ok
	}

	stats.CompletionRate = completionRate(today, active, status)
	stats.CurrentStreak = currentStreak(today, active, status)
	stats.LongestStreak = max(longestStreak(doneDates, today.Location(), active, status), stats.CurrentStreak)

	if created, err := dates.ParseIn(h.CreatedAt, today.Location()); err == nil {
		for d := range dates.Range(created, today) {
			if active(d) {
				stats.TotalDays++
			}
		}
	}

	return stats
}

func completionRate(today time.Time, active func(time.Time) bool, status func(time.Time) (model.Status, bool)) int {
	var activeDays, completed int
	for d := range dates.Range(dates.AddDays(today, -completionWindowDays), today) {
		if !active(d) {
			continue
		}
		activeDays++
		if st, _ := status(d); st == model.StatusDone {
			completed++
		}
	}
	if activeDays == 0 {
		return 0
	}
	// round(completed/active*100) with halves rounded up
	return (200*completed + activeDays) / (2 * activeDays)
}

func currentStreak(today time.Time, active func(time.Time) bool, status func(time.Time) (model.Status, bool)) int {
	streak := 0
	for offset := 0; offset < streakLookbackDays; offset++ {
		d := dates.AddDays(today, -offset)
		if !active(d) {
			continue
		}
		st, marked := status(d)
		if !marked && offset == 0 {
			// today is not held against the streak until it is marked
			continue
		}
		if st != model.StatusDone {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(doneDates []string, loc *time.Location, active func(time.Time) bool, status func(time.Time) (model.Status, bool)) int {
	if len(doneDates) == 0 {
		return 0
	}
	slices.Sort(doneDates)
	first, err := dates.ParseIn(doneDates[0], loc)
	if err != nil {
		return 0
	}
	last, err := dates.ParseIn(doneDates[len(doneDates)-1], loc)
	if err != nil {
		return 0
	}

	longest, run := 0, 0
	for d := range dates.Range(first, last) {
		if !active(d) {
			continue
		}
		if st, _ := status(d); st == model.StatusDone {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}
