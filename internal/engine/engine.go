// Package engine is the public surface of the scheduling core. It routes
// review events to the deadline or memory-model scheduler, converts decks
// between modes, classifies mastery, and selects due cards.
//
// Every function operates on explicitly passed snapshots and returns deltas;
// the engine never holds state across calls and never touches storage. The
// caller is responsible for serializing reviews of the same card so its state
// transitions form a total order.
package engine

import (
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/deadline"
	"github.com/cianmurphy/decksched/internal/domain"
	"github.com/cianmurphy/decksched/internal/fsrs"
)

// Engine bundles the scheduler parameters. Engines are cheap and safe for
// concurrent reads.
type Engine struct {
	fsrs *fsrs.Params
}

// New creates an engine. A nil params uses fsrs.DefaultParams.
func New(params *fsrs.Params) *Engine {
	if params == nil {
		params = fsrs.DefaultParams()
	}
	return &Engine{fsrs: params}
}

// Params exposes the memory-model parameters in use.
func (e *Engine) Params() *fsrs.Params {
	return e.fsrs
}

// ScheduleCardCreation returns the initial scheduling state for a card being
// created in the given deck, inheriting the deck's mode and deadline. Only
// Mode, the mode's state block, and CreatedAt are populated.
func (e *Engine) ScheduleCardCreation(deck domain.Deck, today time.Time) (domain.Card, error) {
	today = dates.DayFloor(today)
	card := domain.Card{
		DeckID:    deck.ID,
		Mode:      deck.Mode,
		CreatedAt: today,
	}

	switch deck.Mode {
	case domain.ModeDeadline:
		if deck.Deadline == nil {
			return domain.Card{}, domain.ErrMissingDeadline
		}
		offsets, err := deadline.BuildSchedule(*deck.Deadline, today)
		if err != nil {
			return domain.Card{}, err
		}
		card.Deadline = &domain.DeadlineState{
			Deadline: dates.DayFloor(*deck.Deadline),
			Offsets:  offsets,
			Step:     0,
			Due:      deadline.DueDateForStep(offsets, 0, today, *deck.Deadline),
			Mastery:  domain.Learning,
		}
	case domain.ModeMemoryModel:
		// Seeded state; the first review replaces the seeds from the rating.
		s, d := e.fsrs.InitialState(domain.Good)
		card.Memory = &domain.MemoryState{
			Stability:  s,
			Difficulty: d,
			Due:        today, // immediately reviewable
		}
	default:
		return domain.Card{}, domain.ErrInconsistentModeState
	}
	return card, nil
}

// ShouldPromptDeadlinePassed reports whether the one-time post-deadline
// prompt should fire for this deck. The caller sets DeadlinePromptShown
// after presenting it.
func ShouldPromptDeadlinePassed(deck domain.Deck, today time.Time) bool {
	return deck.Mode == domain.ModeDeadline &&
		deck.Deadline != nil &&
		deadline.IsEmergencyDay(*deck.Deadline, today) &&
		!deck.DeadlinePromptShown
}
