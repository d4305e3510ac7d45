// Package dates provides day-granularity date arithmetic. All scheduling
// comparisons in the engine strip time-of-day before comparing.
package dates

import "time"

// DayFloor truncates t to midnight in its own location.
func DayFloor(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// civilUTC maps t's calendar date onto midnight UTC, so day differences are
// exact multiples of 24h regardless of DST transitions.
func civilUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// Negative when `to` is an earlier day.
func DaysBetween(from, to time.Time) int {
	return int(civilUTC(to).Sub(civilUTC(from)).Hours() / 24)
}

// AddDays returns t shifted by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// OnOrBefore reports whether a's calendar day is b's day or earlier.
func OnOrBefore(a, b time.Time) bool {
	return DaysBetween(a, b) >= 0
}

// Today returns the current day at day granularity. The engine never calls
// this itself; callers capture it once per batch of operations.
func Today() time.Time {
	return DayFloor(time.Now())
}
