package engine

import (
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/deadline"
	"github.com/cianmurphy/decksched/internal/domain"
)

// Memory-model seeds applied when converting a deadline card, keyed by its
// mastery at conversion time. Schedule progress itself is discarded; only
// mastery survives the conversion.
var conversionSeeds = map[domain.MasteryLabel]struct {
	stability  float64
	difficulty float64
}{
	domain.Mastered:   {stability: 21, difficulty: 3.5},
	domain.Learning:   {stability: 7, difficulty: 5.5},
	domain.Struggling: {stability: 2, difficulty: 7.5},
}

// ConvertDeckMode migrates a deck and all of its cards to the target mode,
// returning the full set of deltas. Preconditions are checked for every card
// before any delta is built, so the result is all-or-nothing; converting to
// the deck's current mode is a no-op.
//
// Deadline → memory-model seeds stability and difficulty from each card's
// mastery. Memory-model → deadline requires newDeadline and rebuilds a fresh
// schedule at step zero for every card.
func (e *Engine) ConvertDeckMode(deck domain.Deck, cards []domain.Card, target domain.Mode, newDeadline *time.Time, today time.Time) (domain.Deck, []domain.Card, error) {
	if !target.IsValid() {
		return domain.Deck{}, nil, domain.ErrInconsistentModeState
	}
	if target == deck.Mode {
		return deck, cards, nil
	}
	today = dates.DayFloor(today)

	for i := range cards {
		if err := cards[i].Validate(); err != nil {
			return domain.Deck{}, nil, err
		}
	}

	switch target {
	case domain.ModeMemoryModel:
		return e.convertToMemory(deck, cards, today)
	default:
		return e.convertToDeadline(deck, cards, newDeadline, today)
	}
}

func (e *Engine) convertToMemory(deck domain.Deck, cards []domain.Card, today time.Time) (domain.Deck, []domain.Card, error) {
	out := make([]domain.Card, len(cards))
	for i, card := range cards {
		label, err := Classify(card)
		if err != nil {
			return domain.Deck{}, nil, err
		}
		seed := conversionSeeds[label]

		c := card.Clone()
		c.Mode = domain.ModeMemoryModel
		c.Deadline = nil
		c.Memory = &domain.MemoryState{
			Stability:  seed.stability,
			Difficulty: seed.difficulty,
			Due:        dates.AddDays(today, e.fsrs.NextIntervalDays(seed.stability)),
		}
		out[i] = c
	}

	deck.Mode = domain.ModeMemoryModel
	deck.Deadline = nil
	deck.DeadlinePromptShown = false
	return deck, out, nil
}

func (e *Engine) convertToDeadline(deck domain.Deck, cards []domain.Card, newDeadline *time.Time, today time.Time) (domain.Deck, []domain.Card, error) {
	if newDeadline == nil {
		return domain.Deck{}, nil, domain.ErrMissingDeadline
	}
	offsets, err := deadline.BuildSchedule(*newDeadline, today)
	if err != nil {
		return domain.Deck{}, nil, err
	}
	dl := dates.DayFloor(*newDeadline)

	out := make([]domain.Card, len(cards))
	for i, card := range cards {
		c := card.Clone()
		c.Mode = domain.ModeDeadline
		c.Memory = nil
		c.Deadline = &domain.DeadlineState{
			Deadline: dl,
			Offsets:  append([]int(nil), offsets...),
			Step:     0,
			Due:      deadline.DueDateForStep(offsets, 0, c.CreatedAt, dl),
			Mastery:  domain.Learning,
		}
		out[i] = c
	}

	deck.Mode = domain.ModeDeadline
	deck.Deadline = &dl
	deck.DeadlinePromptShown = false
	return deck, out, nil
}

// EditDeadline moves a deadline deck to a new target date, rebuilding every
// card's schedule while preserving each card's step index clamped to the new
// schedule's bounds. All cards are validated before any is rebuilt.
func (e *Engine) EditDeadline(deck domain.Deck, cards []domain.Card, newDeadline, today time.Time) (domain.Deck, []domain.Card, error) {
	if deck.Mode != domain.ModeDeadline {
		return domain.Deck{}, nil, domain.ErrInconsistentModeState
	}
	today = dates.DayFloor(today)
	if dates.DaysBetween(today, newDeadline) < 1 {
		return domain.Deck{}, nil, domain.ErrInvalidDeadline
	}

	for i := range cards {
		if err := cards[i].Validate(); err != nil {
			return domain.Deck{}, nil, err
		}
		if cards[i].Mode != domain.ModeDeadline {
			return domain.Deck{}, nil, domain.ErrInconsistentModeState
		}
	}

	out := make([]domain.Card, len(cards))
	for i, card := range cards {
		c := card.Clone()
		st, err := deadline.Reschedule(*c.Deadline, newDeadline, c.CreatedAt, today)
		if err != nil {
			return domain.Deck{}, nil, err
		}
		c.Deadline = &st
		out[i] = c
	}

	dl := dates.DayFloor(newDeadline)
	deck.Deadline = &dl
	deck.DeadlinePromptShown = false
	return deck, out, nil
}
