package engine

import (
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/deadline"
	"github.com/cianmurphy/decksched/internal/domain"
)

// ReviewResult is the outcome of routing one review. It is either a Persist,
// whose card delta the caller writes to storage, or a Requeue, which affects
// only the current study session.
type ReviewResult interface {
	isReviewResult()
}

// Persist carries a full card delta to be written to storage, plus the
// review-log entry for the event.
type Persist struct {
	Card domain.Card
	Log  domain.ReviewLog
}

// Requeue is returned for "again" on a deadline-mode card. The canonical due
// date and step are unchanged; the learner sees the card again within the
// same session.
type Requeue struct {
	// Session is the card as the current session should see it: the failure
	// counter bumped and the step regressed. Its scheduling fields must not
	// be persisted.
	Session domain.Card

	// History is the updated trailing rating history, which the caller does
	// persist so mastery classification sees the failure.
	History []domain.Rating
}

func (Persist) isReviewResult() {}
func (Requeue) isReviewResult() {}

// ReviewCard routes a rated review to the card's scheduler and returns the
// resulting delta. The input card is never mutated; invalid input fails
// before any state is produced.
//
// Deadline mode treats "again" as a session requeue rather than a persisted
// state change: the deck is being drilled toward a fixed date and a miss
// means "show it again today", not "reschedule it". Memory-model mode
// persists every rating, since each outcome is signal for the model.
func (e *Engine) ReviewCard(card domain.Card, rating domain.Rating, today time.Time) (ReviewResult, error) {
	if !rating.IsValid() {
		return nil, domain.ErrInvalidRating
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	today = dates.DayFloor(today)

	switch card.Mode {
	case domain.ModeDeadline:
		return e.reviewDeadline(card, rating, today), nil
	default:
		return e.reviewMemory(card, rating, today), nil
	}
}

func (e *Engine) reviewDeadline(card domain.Card, rating domain.Rating, today time.Time) ReviewResult {
	c := card.Clone()
	c.AppendHistory(rating)

	if rating == domain.Again {
		st := deadline.RegressOnIncorrect(*c.Deadline, c.CreatedAt)
		c.Deadline = &st
		c.Deadline.Mastery = classifyDeadline(&c)
		return Requeue{Session: c, History: c.History}
	}

	var st domain.DeadlineState
	if rating < domain.Good && c.Deadline.Step == 0 {
		st = deadline.RegressOnIncorrect(*c.Deadline, c.CreatedAt)
	} else {
		st = deadline.AdvanceOnCorrect(*c.Deadline, c.CreatedAt)
	}
	c.Deadline = &st
	c.Deadline.Mastery = classifyDeadline(&c)

	return Persist{
		Card: c,
		Log:  domain.ReviewLog{CardID: c.ID, Rating: rating, Timestamp: today},
	}
}

func (e *Engine) reviewMemory(card domain.Card, rating domain.Rating, today time.Time) ReviewResult {
	c := card.Clone()
	c.AppendHistory(rating)

	st := e.fsrs.NextState(*c.Memory, rating, today)
	c.Memory = &st

	return Persist{
		Card: c,
		Log:  domain.ReviewLog{CardID: c.ID, Rating: rating, Timestamp: today},
	}
}
