package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// WINDOW - Time boundary for aggregation
// =============================================================================

// Window bounds a set of transactions in time. A zero From or To means
// unbounded on that side; both ends are inclusive.
//
// Named trailing windows are computed relative to "now" at call time:
//   - day:   the last 24 hours
//   - week:  the last 7 days
//   - month: one calendar month back
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

func (w Window) String() string {
	from, to := "-inf", "+inf"
	if !w.From.IsZero() {
		from = w.From.Format("2006-01-02")
	}
	if !w.To.IsZero() {
		to = w.To.Format("2006-01-02")
	}
	return "[" + from + ", " + to + "]"
}

// Constructors for the named trailing windows.
func LastDay(now time.Time) Window   { return Window{From: now.Add(-24 * time.Hour)} }
func LastWeek(now time.Time) Window  { return Window{From: now.AddDate(0, 0, -7)} }
func LastMonth(now time.Time) Window { return Window{From: now.AddDate(0, -1, 0)} }
func LastNDays(now time.Time, n int) Window {
	return Window{From: now.AddDate(0, 0, -n)}
}

// AllTime is the unbounded window.
func AllTime() Window { return Window{} }

// Between is an explicit [from, to] range. An explicit range always
// overrides a named trailing window.
func Between(from, to time.Time) Window { return Window{From: from, To: to} }

// OnDay covers a single calendar day in the day's location.
func OnDay(day time.Time) Window {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return Window{From: start, To: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// ParseWindow resolves a named trailing window relative to now.
// Recognized names: day, week, month, 7days, 30days, all.
func ParseWindow(name string, now time.Time) (Window, error) {
	switch name {
	case "day":
		return LastDay(now), nil
	case "week", "7days":
		return LastWeek(now), nil
	case "month":
		return LastMonth(now), nil
	case "30days":
		return LastNDays(now, 30), nil
	case "all", "":
		return AllTime(), nil
	}
	return Window{}, &ValidationError{Field: "window", Message: fmt.Sprintf("unknown period %q", name)}
}
