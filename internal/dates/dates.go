// Package dates provides calendar-day helpers. All functions work on the
// calendar date of a time.Time in its own location; no zone conversion is
// performed.
package dates

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical on-disk date format.
const Layout = "2006-01-02"

// YearMonth identifies one month of one year.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Format returns t as YYYY-MM-DD using t's own year, month and day. Only years
// 0000 through 9999 fit the layout; Parse rejects the output for any other
// year, so such dates never validate as stored data.
func Format(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Parse parses a YYYY-MM-DD string into local midnight of that day.
func Parse(s string) (time.Time, error) {
	return ParseIn(s, time.Local)
}

// ParseIn parses a YYYY-MM-DD string into midnight of that day in loc.
func ParseIn(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, landing on midnight.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// compareDays orders a and b by calendar date only.
func compareDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(int(am), int(bm))
	default:
		return cmpInt(ad, bd)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsToday reports whether d is the same calendar day as now.
func IsToday(d, now time.Time) bool {
	return SameDay(d, now)
}

// IsPast reports whether d is a calendar day before now's.
func IsPast(d, now time.Time) bool {
	return compareDays(d, now) < 0
}

// IsFuture reports whether d is a calendar day after now's.
func IsFuture(d, now time.Time) bool {
	return compareDays(d, now) > 0
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the weekday of the 1st (0 = Sunday).
func FirstWeekdayOfMonth(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

var (
	weekdayNames      = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	shortWeekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	monthNames        = [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	shortMonthNames   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// WeekdayName returns the full name for day 0..6 (0 = Sunday), or "" when out of range.
func WeekdayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return weekdayNames[day]
}

// ShortWeekdayName returns the three-letter name for day 0..6.
func ShortWeekdayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return shortWeekdayNames[day]
}

// MonthName returns the full month name, or "" for an invalid month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// ShortMonthName returns the three-letter month name.
func ShortMonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return shortMonthNames[m-1]
}

// FormatDisplay renders d as e.g. "Mon, Jan 2, 2006".
func FormatDisplay(d time.Time) string {
	return d.Format("Mon, Jan 2, 2006")
}

// Range yields every calendar day from start to end inclusive, each at
// midnight. Every iteration starts again from start.
func Range(start, end time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := Midnight(start); compareDays(d, end) <= 0; d = AddDays(d, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// YearMonths returns the twelve months of year in ascending order.
func YearMonths(year int) []YearMonth {
	months := make([]YearMonth, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, YearMonth{Year: year, Month: m})
	}
	return months
}

// ParseWeekdays parses a comma separated weekday list such as "mon,wed,fri"
// or "1,3,5" (0 = Sunday). "all", "weekdays" and "weekends" are accepted as
// shorthands. The result is sorted and free of duplicates.
func ParseWeekdays(s string) ([]int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "daily", "every day":
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	case "weekdays":
		return []int{1, 2, 3, 4, 5}, nil
	case "weekends":
		return []int{0, 6}, nil
	}

	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		day := -1
		if n, err := strconv.Atoi(part); err == nil {
			day = n
		} else {
			for i, name := range weekdayNames {
				if len(part) >= 2 && strings.HasPrefix(strings.ToLower(name), part) {
					day = i
					break
				}
			}
		}
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no weekdays given")
	}
	slices.Sort(days)
	return days, nil
}
