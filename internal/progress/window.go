package progress

import (
	"errors"
	"strings"
	"time"
)

// TimeWindow is a calendar range relative to a reference time, used to restrict chart series.
type TimeWindow int

const (
	WindowDay TimeWindow = iota
	WindowWeek
	WindowMonth
	WindowSixMonths
	WindowYear
)

var ErrUnknownWindow = errors.New("unknown time window")

func (w TimeWindow) String() string {
	switch w {
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	case WindowMonth:
		return "month"
	case WindowSixMonths:
		return "6m"
	case WindowYear:
		return "1y"
	default:
		return "unknown"
	}
}

// ParseTimeWindow accepts the short forms used by the API (week, 6m, 1y)
// as well as the long ones (sixMonths, year).
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "d":
		return WindowDay, nil
	case "week", "w":
		return WindowWeek, nil
	case "month", "m":
		return WindowMonth, nil
	case "6m", "sixmonths", "six_months":
		return WindowSixMonths, nil
	case "1y", "year", "y":
		return WindowYear, nil
	}
	return 0, ErrUnknownWindow
}

// AllWindows returns the windows in the order a period picker shows them.
func AllWindows() []TimeWindow {
	return []TimeWindow{WindowDay, WindowWeek, WindowMonth, WindowSixMonths, WindowYear}
}

// InWindow reports whether ts falls inside window w anchored at ref.
// Calendar fields are read in ref's location.
func InWindow(ts, ref time.Time, w TimeWindow) bool {
	ts = ts.In(ref.Location())

	switch w {
	case WindowDay:
		y1, m1, d1 := ts.Date()
		y2, m2, d2 := ref.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case WindowWeek:
		y1, w1 := ts.ISOWeek()
		y2, w2 := ref.ISOWeek()
		return y1 == y2 && w1 == w2
	case WindowMonth:
		return ts.Year() == ref.Year() && ts.Month() == ref.Month()
	case WindowSixMonths:
		return between(ts, addMonths(ref, -6), ref)
	case WindowYear:
		return between(ts, addMonths(ref, -12), ref)
	}

	return false
}

// AxisTicks returns the chart tick dates for window w, oldest first.
func AxisTicks(ref time.Time, w TimeWindow) []time.Time {
	loc := ref.Location()
	y, m, d := ref.Date()

	switch w {
	case WindowDay:
		ticks := make([]time.Time, 0, 7)
		for h := 0; h <= 24; h += 4 {
			ticks = append(ticks, time.Date(y, m, d, h, 0, 0, 0, loc))
		}
		return ticks
	case WindowWeek:
		monday := mondayOf(ref)
		ticks := make([]time.Time, 0, 8)
		for i := 0; i < 8; i++ {
			ticks = append(ticks, monday.AddDate(0, 0, i))
		}
		return ticks
	case WindowMonth:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		day := first.AddDate(0, 0, (7-weekdayIndex(first))%7)
		var ticks []time.Time
		for day.Month() == m {
			ticks = append(ticks, day)
			day = day.AddDate(0, 0, 7)
		}
		return ticks
	case WindowSixMonths:
		return monthStarts(ref, 6)
	case WindowYear:
		return monthStarts(ref, 12)
	}

	return nil
}

func between(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month (Aug 31 - 6 months = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// weekdayIndex is 0 for Monday through 6 for Sunday.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func mondayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-weekdayIndex(t), 0, 0, 0, 0, t.Location())
}

func monthStarts(ref time.Time, n int) []time.Time {
	y, m, _ := ref.Date()
	ticks := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		ticks = append(ticks, time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, ref.Location()))
	}
	return ticks
}
