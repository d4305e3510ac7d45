package engine

import (
	"errors"
	"testing"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
)

func deadlineCard(t *testing.T, daysOut, step int) domain.Card {
	t.Helper()
	eng := New(nil)
	card, err := eng.ScheduleCardCreation(deadlineDeck(daysOut), today)
	if err != nil {
		t.Fatalf("fixture card: %v", err)
	}
	card.ID = "card-dl"
	if step >= len(card.Deadline.Offsets) {
		t.Fatalf("fixture step %d out of range for %d offsets", step, len(card.Deadline.Offsets))
	}
	card.Deadline.Step = step
	card.Deadline.Due = dates.AddDays(card.CreatedAt, card.Deadline.Offsets[step])
	return card
}

func memoryCard(stability, difficulty float64, lapses int) domain.Card {
	last := dates.AddDays(today, -10)
	return domain.Card{
		ID:     "card-mm",
		DeckID: "deck-mm",
		Mode:   domain.ModeMemoryModel,
		Memory: &domain.MemoryState{
			Stability:   stability,
			Difficulty:  difficulty,
			LastReview:  &last,
			ReviewCount: 3,
			LapseCount:  lapses,
			Due:         today,
		},
		CreatedAt: dates.AddDays(today, -30),
	}
}

func TestReviewDeadlineAgainIsSessionOnly(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 3)
	wantStep := card.Deadline.Step
	wantDue := card.Deadline.Due

	res, err := eng.ReviewCard(card, domain.Again, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rq, ok := res.(Requeue)
	if !ok {
		t.Fatalf("expected Requeue for again, got %T", res)
	}

	// The canonical card is untouched; only the session copy regresses.
	if card.Deadline.Step != wantStep {
		t.Errorf("persisted step changed: %d -> %d", wantStep, card.Deadline.Step)
	}
	if !card.Deadline.Due.Equal(wantDue) {
		t.Errorf("persisted due changed: %v -> %v", wantDue, card.Deadline.Due)
	}
	if rq.Session.Deadline.Step != wantStep-1 {
		t.Errorf("session step = %d, want %d", rq.Session.Deadline.Step, wantStep-1)
	}
	if rq.Session.Deadline.AgainCount != 1 {
		t.Errorf("session again count = %d, want 1", rq.Session.Deadline.AgainCount)
	}
	if len(rq.History) != 1 || rq.History[0] != domain.Again {
		t.Errorf("history = %v, want [again]", rq.History)
	}
}

func TestReviewDeadlineRepeatedAgainResetsSessionStep(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 4)

	res, err := eng.ReviewCard(card, domain.Again, today)
	if err != nil {
		t.Fatalf("first again: %v", err)
	}
	second, err := eng.ReviewCard(res.(Requeue).Session, domain.Again, today)
	if err != nil {
		t.Fatalf("second again: %v", err)
	}
	got := second.(Requeue).Session.Deadline
	if got.Step != 0 {
		t.Errorf("session step after two consecutive failures = %d, want 0", got.Step)
	}
	if got.AgainCount != 2 {
		t.Errorf("again count = %d, want 2", got.AgainCount)
	}
}

func TestReviewDeadlineGoodAdvances(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 1)

	res, err := eng.ReviewCard(card, domain.Good, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := res.(Persist)
	if !ok {
		t.Fatalf("expected Persist for good, got %T", res)
	}
	if p.Card.Deadline.Step != 2 {
		t.Errorf("step = %d, want 2", p.Card.Deadline.Step)
	}
	wantDue := dates.AddDays(card.CreatedAt, card.Deadline.Offsets[2])
	if !p.Card.Deadline.Due.Equal(wantDue) {
		t.Errorf("due = %v, want %v", p.Card.Deadline.Due, wantDue)
	}
	if p.Log.CardID != card.ID || p.Log.Rating != domain.Good {
		t.Errorf("log = %+v, want card %s rated good", p.Log, card.ID)
	}
	if len(card.History) != 0 {
		t.Error("input card history was mutated")
	}
}

func TestReviewDeadlineHardAtStepZeroPersistsRegress(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 0)

	res, err := eng.ReviewCard(card, domain.Hard, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := res.(Persist)
	if !ok {
		t.Fatalf("expected Persist for hard at step 0, got %T", res)
	}
	if p.Card.Deadline.Step != 0 {
		t.Errorf("step = %d, want 0", p.Card.Deadline.Step)
	}
}

func TestReviewDeadlineHardAboveStepZeroAdvances(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 2)

	res, err := eng.ReviewCard(card, domain.Hard, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.(Persist).Card.Deadline.Step; got != 3 {
		t.Errorf("step = %d, want 3", got)
	}
}

func TestReviewDeadlineStepClampedAtScheduleEnd(t *testing.T) {
	eng := New(nil)
	card := deadlineCard(t, 10, 0)
	card.Deadline.Step = len(card.Deadline.Offsets) - 1

	res, err := eng.ReviewCard(card, domain.Easy, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.(Persist).Card.Deadline
	if got.Step != len(got.Offsets)-1 {
		t.Errorf("step = %d, want clamped to %d", got.Step, len(got.Offsets)-1)
	}
}

func TestReviewMemoryAgainLapses(t *testing.T) {
	eng := New(nil)
	card := memoryCard(10, 5, 1)

	res, err := eng.ReviewCard(card, domain.Again, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := res.(Persist)
	if !ok {
		t.Fatalf("expected Persist for memory-model again, got %T", res)
	}
	st := p.Card.Memory
	if st.Stability >= card.Memory.Stability {
		t.Errorf("stability did not decrease on lapse: %v -> %v", card.Memory.Stability, st.Stability)
	}
	if st.LapseCount != 2 {
		t.Errorf("lapse count = %d, want 2", st.LapseCount)
	}
	if st.Difficulty <= card.Memory.Difficulty {
		t.Errorf("difficulty did not rise on lapse: %v -> %v", card.Memory.Difficulty, st.Difficulty)
	}
	if st.ReviewCount != 4 {
		t.Errorf("review count = %d, want 4", st.ReviewCount)
	}
}

func TestReviewMemoryGoodGrowsStability(t *testing.T) {
	eng := New(nil)
	card := memoryCard(10, 5, 1)

	res, err := eng.ReviewCard(card, domain.Good, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := res.(Persist).Card.Memory
	if st.Stability <= card.Memory.Stability {
		t.Errorf("stability did not grow: %v -> %v", card.Memory.Stability, st.Stability)
	}
	if !st.Due.After(today) {
		t.Errorf("due = %v, want after %v", st.Due, today)
	}
	if st.LastReview == nil || !st.LastReview.Equal(today) {
		t.Errorf("last review = %v, want %v", st.LastReview, today)
	}
	if len(card.History) != 0 {
		t.Error("input card history was mutated")
	}
}

func TestReviewRejectsInvalidInput(t *testing.T) {
	eng := New(nil)

	if _, err := eng.ReviewCard(memoryCard(10, 5, 0), domain.Rating(0), today); !errors.Is(err, domain.ErrInvalidRating) {
		t.Errorf("rating 0: got %v, want ErrInvalidRating", err)
	}
	if _, err := eng.ReviewCard(memoryCard(10, 5, 0), domain.Rating(5), today); !errors.Is(err, domain.ErrInvalidRating) {
		t.Errorf("rating 5: got %v, want ErrInvalidRating", err)
	}

	bad := memoryCard(10, 5, 0)
	bad.Memory = nil
	if _, err := eng.ReviewCard(bad, domain.Good, today); !errors.Is(err, domain.ErrInconsistentModeState) {
		t.Errorf("missing state block: got %v, want ErrInconsistentModeState", err)
	}

	both := memoryCard(10, 5, 0)
	both.Deadline = &domain.DeadlineState{Offsets: []int{0}}
	if _, err := eng.ReviewCard(both, domain.Good, today); !errors.Is(err, domain.ErrInconsistentModeState) {
		t.Errorf("both state blocks: got %v, want ErrInconsistentModeState", err)
	}
}

func TestReviewHistoryIsBounded(t *testing.T) {
	eng := New(nil)
	card := memoryCard(10, 5, 0)
	for i := 0; i < domain.HistoryLimit+4; i++ {
		res, err := eng.ReviewCard(card, domain.Good, dates.AddDays(today, i))
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
		card = res.(Persist).Card
	}
	if len(card.History) != domain.HistoryLimit {
		t.Errorf("history length = %d, want %d", len(card.History), domain.HistoryLimit)
	}
}
