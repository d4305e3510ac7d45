package engine

import (
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/deadline"
	"github.com/cianmurphy/decksched/internal/domain"
)

// DueCards returns the cards due for review today: every card whose due day
// is today or earlier, plus every card of a deadline deck on its emergency
// day regardless of schedule. A non-empty deckID scopes the result to one
// deck. The call is deterministic and never mutates its inputs.
func DueCards(cards []domain.Card, decks []domain.Deck, today time.Time, deckID string) []domain.Card {
	today = dates.DayFloor(today)

	deckByID := make(map[string]domain.Deck, len(decks))
	for _, d := range decks {
		deckByID[d.ID] = d
	}

	var due []domain.Card
	for _, card := range cards {
		if deckID != "" && card.DeckID != deckID {
			continue
		}
		deck, ok := deckByID[card.DeckID]
		if !ok {
			continue
		}
		if isEmergency(deck, today) || dates.OnOrBefore(card.DueDate(), today) {
			due = append(due, card)
		}
	}
	return due
}

func isEmergency(deck domain.Deck, today time.Time) bool {
	return deck.Mode == domain.ModeDeadline &&
		deck.Deadline != nil &&
		deadline.IsEmergencyDay(*deck.Deadline, today)
}
