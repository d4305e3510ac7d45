// Package deadline implements the fixed-deadline ("cram") scheduler: a finite
// day-offset sequence counting up to a test date, advanced on correct answers
// and regressed on failures.
package deadline

import (
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
)

// maxAgainCount saturates the session-scoped consecutive-failure counter.
const maxAgainCount = 3

// BuildSchedule computes the day-offset sequence for a deadline relative to
// today. Offsets are sparse early and daily inside the final week; the last
// offset always lands on the day before the deadline. The returned sequence
// is non-empty, strictly increasing, and every offset is strictly less than
// the number of days until the deadline.
//
// The density of the early offsets is a tunable policy; the constraints above
// are the contract.
func BuildSchedule(deadlineDate, today time.Time) ([]int, error) {
	days := dates.DaysBetween(today, deadlineDate)
	if days < 1 {
		return nil, domain.ErrInvalidDeadline
	}
	last := days - 1

	var offsets []int
	// Every third day until the final week begins.
	for o := 0; o < last-6; o += 3 {
		offsets = append(offsets, o)
	}
	// Daily through the final review day.
	start := last - 6
	if start < 0 {
		start = 0
	}
	for o := start; o <= last; o++ {
		offsets = append(offsets, o)
	}
	return offsets, nil
}

// DueDateForStep computes the concrete due date for a schedule step:
// createdAt + offsets[step], capped at deadline − 1 day. The cap is a hard
// invariant and holds for every step index.
func DueDateForStep(offsets []int, step int, createdAt, deadlineDate time.Time) time.Time {
	if step < 0 {
		step = 0
	}
	if step >= len(offsets) {
		step = len(offsets) - 1
	}
	due := dates.AddDays(dates.DayFloor(createdAt), offsets[step])
	cap := dates.AddDays(dates.DayFloor(deadlineDate), -1)
	if due.After(cap) {
		return cap
	}
	return due
}

// AdvanceOnCorrect moves the schedule forward one step, clamped to the final
// step, resets the consecutive-failure counter, and recomputes the due date.
func AdvanceOnCorrect(st domain.DeadlineState, createdAt time.Time) domain.DeadlineState {
	if st.Step < len(st.Offsets)-1 {
		st.Step++
	}
	st.AgainCount = 0
	st.Due = DueDateForStep(st.Offsets, st.Step, createdAt, st.Deadline)
	return st
}

// RegressOnIncorrect moves the schedule backward: a single failure drops one
// step, repeated consecutive failures reset to step zero. The failure counter
// saturates rather than growing without bound.
func RegressOnIncorrect(st domain.DeadlineState, createdAt time.Time) domain.DeadlineState {
	if st.AgainCount < maxAgainCount {
		st.AgainCount++
	}
	if st.AgainCount >= 2 {
		st.Step = 0
	} else if st.Step > 0 {
		st.Step--
	}
	st.Due = DueDateForStep(st.Offsets, st.Step, createdAt, st.Deadline)
	return st
}

// Reschedule rebuilds a card's schedule against a new deadline, preserving
// the card's step index clamped to the new schedule's bounds.
func Reschedule(st domain.DeadlineState, newDeadline, createdAt, today time.Time) (domain.DeadlineState, error) {
	offsets, err := BuildSchedule(newDeadline, today)
	if err != nil {
		return domain.DeadlineState{}, err
	}
	st.Deadline = dates.DayFloor(newDeadline)
	st.Offsets = offsets
	if st.Step >= len(offsets) {
		st.Step = len(offsets) - 1
	}
	st.Due = DueDateForStep(offsets, st.Step, createdAt, st.Deadline)
	return st, nil
}

// IsFinalReviewDay reports whether today is exactly one day before the deadline.
func IsFinalReviewDay(deadlineDate, today time.Time) bool {
	return dates.DaysBetween(today, deadlineDate) == 1
}

// IsEmergencyDay reports whether today is on or after the deadline. On an
// emergency day every card in the deck is due regardless of its schedule.
func IsEmergencyDay(deadlineDate, today time.Time) bool {
	return dates.DaysBetween(today, deadlineDate) <= 0
}
