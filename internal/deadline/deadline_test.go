package deadline

import (
	"errors"
	"testing"
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestBuildScheduleProperties(t *testing.T) {
	for days := 1; days <= 60; days++ {
		deadlineDate := dates.AddDays(today, days)
		offsets, err := BuildSchedule(deadlineDate, today)
		if err != nil {
			t.Fatalf("days=%d: unexpected error: %v", days, err)
		}
		if len(offsets) == 0 {
			t.Fatalf("days=%d: expected non-empty schedule", days)
		}
		for i, o := range offsets {
			if o >= days {
				t.Errorf("days=%d: offset %d at index %d is not < days-until-deadline", days, o, i)
			}
			if i > 0 && o < offsets[i-1] {
				t.Errorf("days=%d: offsets decrease at index %d", days, i)
			}
		}
		if last := offsets[len(offsets)-1]; last != days-1 {
			t.Errorf("days=%d: expected last offset %d (final review day), got %d", days, days-1, last)
		}
	}
}

func TestBuildScheduleWeekOut(t *testing.T) {
	// A deadline a week away must book the final review day at offset 6.
	offsets, err := BuildSchedule(dates.AddDays(today, 7), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := offsets[len(offsets)-1]; last != 6 {
		t.Errorf("expected last offset 6, got %d", last)
	}
}

func TestBuildScheduleRejectsPastDeadline(t *testing.T) {
	for _, days := range []int{0, -1, -30} {
		_, err := BuildSchedule(dates.AddDays(today, days), today)
		if !errors.Is(err, domain.ErrInvalidDeadline) {
			t.Errorf("days=%d: expected ErrInvalidDeadline, got %v", days, err)
		}
	}
}

func TestDueDateForStepCap(t *testing.T) {
	deadlineDate := dates.AddDays(today, 10)
	offsets, err := BuildSchedule(deadlineDate, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cap := dates.AddDays(deadlineDate, -1)

	for step := range offsets {
		due := DueDateForStep(offsets, step, today, deadlineDate)
		if due.After(cap) {
			t.Errorf("step %d: due %v exceeds deadline-1 cap %v", step, due, cap)
		}
	}

	// Even offsets that drift past the deadline are capped.
	drifted := []int{0, 5, 50}
	due := DueDateForStep(drifted, 2, today, deadlineDate)
	if !due.Equal(cap) {
		t.Errorf("expected drifted offset capped to %v, got %v", cap, due)
	}
}

func newState(days int) domain.DeadlineState {
	deadlineDate := dates.AddDays(today, days)
	offsets, _ := BuildSchedule(deadlineDate, today)
	return domain.DeadlineState{
		Deadline: deadlineDate,
		Offsets:  offsets,
		Step:     0,
		Due:      DueDateForStep(offsets, 0, today, deadlineDate),
	}
}

func TestAdvanceOnCorrect(t *testing.T) {
	st := newState(10)

	next := AdvanceOnCorrect(st, today)
	if next.Step != 1 {
		t.Errorf("expected step 1, got %d", next.Step)
	}
	if !next.Due.Equal(DueDateForStep(st.Offsets, 1, today, st.Deadline)) {
		t.Errorf("due not recomputed: %v", next.Due)
	}

	t.Run("clamps at final step", func(t *testing.T) {
		st := newState(3)
		st.Step = len(st.Offsets) - 1
		next := AdvanceOnCorrect(st, today)
		if next.Step != len(st.Offsets)-1 {
			t.Errorf("expected step to stay at %d, got %d", len(st.Offsets)-1, next.Step)
		}
	})

	t.Run("resets the failure counter", func(t *testing.T) {
		st := newState(10)
		st.AgainCount = 2
		if next := AdvanceOnCorrect(st, today); next.AgainCount != 0 {
			t.Errorf("expected again count reset, got %d", next.AgainCount)
		}
	})
}

func TestRegressOnIncorrect(t *testing.T) {
	t.Run("single failure drops one step", func(t *testing.T) {
		st := newState(10)
		st.Step = 2
		next := RegressOnIncorrect(st, today)
		if next.Step != 1 {
			t.Errorf("expected step 1, got %d", next.Step)
		}
		if next.AgainCount != 1 {
			t.Errorf("expected again count 1, got %d", next.AgainCount)
		}
	})

	t.Run("consecutive failures reset to step zero", func(t *testing.T) {
		st := newState(10)
		st.Step = 3
		st.AgainCount = 1
		next := RegressOnIncorrect(st, today)
		if next.Step != 0 {
			t.Errorf("expected step 0, got %d", next.Step)
		}
	})

	t.Run("failure at last step decreases the step", func(t *testing.T) {
		st := newState(3)
		st.Step = len(st.Offsets) - 1
		next := RegressOnIncorrect(st, today)
		if next.Step >= st.Step {
			t.Errorf("expected step below %d, got %d", st.Step, next.Step)
		}
	})

	t.Run("step never goes negative", func(t *testing.T) {
		st := newState(10)
		next := RegressOnIncorrect(st, today)
		if next.Step != 0 {
			t.Errorf("expected step 0, got %d", next.Step)
		}
	})

	t.Run("again count saturates", func(t *testing.T) {
		st := newState(10)
		for i := 0; i < 6; i++ {
			st = RegressOnIncorrect(st, today)
		}
		if st.AgainCount != maxAgainCount {
			t.Errorf("expected again count %d, got %d", maxAgainCount, st.AgainCount)
		}
	})
}

func TestReschedule(t *testing.T) {
	st := newState(30)
	st.Step = 9

	t.Run("preserves step within bounds", func(t *testing.T) {
		newDeadline := dates.AddDays(today, 40)
		next, err := Reschedule(st, newDeadline, today, today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Step != 9 {
			t.Errorf("expected step preserved at 9, got %d", next.Step)
		}
		if !next.Deadline.Equal(newDeadline) {
			t.Errorf("expected deadline %v, got %v", newDeadline, next.Deadline)
		}
	})

	t.Run("clamps step to the new schedule", func(t *testing.T) {
		newDeadline := dates.AddDays(today, 3)
		next, err := Reschedule(st, newDeadline, today, today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.Step != len(next.Offsets)-1 {
			t.Errorf("expected step clamped to %d, got %d", len(next.Offsets)-1, next.Step)
		}
	})

	t.Run("rejects a past deadline", func(t *testing.T) {
		_, err := Reschedule(st, dates.AddDays(today, -1), today, today)
		if !errors.Is(err, domain.ErrInvalidDeadline) {
			t.Errorf("expected ErrInvalidDeadline, got %v", err)
		}
	})
}

func TestDayFlags(t *testing.T) {
	deadlineDate := dates.AddDays(today, 1)

	if !IsFinalReviewDay(deadlineDate, today) {
		t.Error("expected final review day one day before the deadline")
	}
	if IsFinalReviewDay(deadlineDate, dates.AddDays(today, 1)) {
		t.Error("deadline day itself is not the final review day")
	}

	if IsEmergencyDay(deadlineDate, today) {
		t.Error("day before deadline is not an emergency day")
	}
	if !IsEmergencyDay(deadlineDate, dates.AddDays(today, 1)) {
		t.Error("expected emergency day on the deadline itself")
	}
	if !IsEmergencyDay(deadlineDate, dates.AddDays(today, 5)) {
		t.Error("expected emergency day after the deadline")
	}
}
