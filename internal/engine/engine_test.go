package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func deadlineDeck(days int) domain.Deck {
	dl := dates.AddDays(today, days)
	return domain.Deck{ID: "deck-dl", Name: "exam", Mode: domain.ModeDeadline, Deadline: &dl}
}

func memoryDeck() domain.Deck {
	return domain.Deck{ID: "deck-mm", Name: "vocab", Mode: domain.ModeMemoryModel}
}

func TestScheduleCardCreationDeadline(t *testing.T) {
	eng := New(nil)
	deck := deadlineDeck(7)

	card, err := eng.ScheduleCardCreation(deck, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := card.Validate(); err != nil {
		t.Fatalf("created card fails validation: %v", err)
	}
	if card.Mode != domain.ModeDeadline {
		t.Errorf("expected deadline mode, got %s", card.Mode)
	}
	if card.Deadline.Step != 0 {
		t.Errorf("expected step 0, got %d", card.Deadline.Step)
	}
	if len(card.Deadline.Offsets) == 0 {
		t.Error("expected a non-empty schedule")
	}
	if !card.Deadline.Due.Equal(today) {
		t.Errorf("expected first review today (offset 0), got %v", card.Deadline.Due)
	}
	if card.Deadline.Mastery != domain.Learning {
		t.Errorf("expected a fresh card to be learning, got %s", card.Deadline.Mastery)
	}
}

func TestScheduleCardCreationMemory(t *testing.T) {
	eng := New(nil)

	card, err := eng.ScheduleCardCreation(memoryDeck(), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := card.Validate(); err != nil {
		t.Fatalf("created card fails validation: %v", err)
	}
	if card.Memory.Stability <= 0 {
		t.Errorf("expected positive seeded stability, got %v", card.Memory.Stability)
	}
	if card.Memory.LastReview != nil {
		t.Error("expected no last review on a fresh card")
	}
	if !card.Memory.Due.Equal(today) {
		t.Errorf("expected a fresh card due immediately, got %v", card.Memory.Due)
	}
}

func TestScheduleCardCreationMissingDeadline(t *testing.T) {
	eng := New(nil)
	deck := domain.Deck{ID: "d", Name: "broken", Mode: domain.ModeDeadline}

	_, err := eng.ScheduleCardCreation(deck, today)
	if !errors.Is(err, domain.ErrMissingDeadline) {
		t.Errorf("expected ErrMissingDeadline, got %v", err)
	}
}

func TestScheduleCardCreationPastDeadline(t *testing.T) {
	eng := New(nil)
	deck := deadlineDeck(-1)

	_, err := eng.ScheduleCardCreation(deck, today)
	if !errors.Is(err, domain.ErrInvalidDeadline) {
		t.Errorf("expected ErrInvalidDeadline, got %v", err)
	}
}

func TestShouldPromptDeadlinePassed(t *testing.T) {
	deck := deadlineDeck(0) // deadline is today

	if !ShouldPromptDeadlinePassed(deck, today) {
		t.Error("expected prompt on the deadline day")
	}

	deck.DeadlinePromptShown = true
	if ShouldPromptDeadlinePassed(deck, today) {
		t.Error("expected prompt to fire exactly once")
	}

	before := deadlineDeck(3)
	if ShouldPromptDeadlinePassed(before, today) {
		t.Error("expected no prompt before the deadline")
	}

	if ShouldPromptDeadlinePassed(memoryDeck(), today) {
		t.Error("expected no prompt for a memory-model deck")
	}
}
