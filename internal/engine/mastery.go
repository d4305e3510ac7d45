package engine

import (
	"github.com/cianmurphy/decksched/internal/domain"
)

// Mastery thresholds. Deadline-mode labels look at schedule position and the
// trailing history window; memory-model labels look at stability and lapses.
const (
	masteryHistoryWindow = 5

	masteredStabilityDays = 21.0
	masteredMaxLapses     = 2
	strugglingStability   = 3.0
	strugglingMinLapses   = 5
)

// Classify collapses a card's scheduler state into one of the three mastery
// labels. It is a pure function of persisted state.
func Classify(card domain.Card) (domain.MasteryLabel, error) {
	if err := card.Validate(); err != nil {
		return "", err
	}
	if card.Mode == domain.ModeDeadline {
		return classifyDeadline(&card), nil
	}
	return classifyMemory(card.Memory), nil
}

func classifyDeadline(card *domain.Card) domain.MasteryLabel {
	window := card.History
	if len(window) > masteryHistoryWindow {
		window = window[len(window)-masteryHistoryWindow:]
	}
	var recentAgains int
	for _, r := range window {
		if r == domain.Again {
			recentAgains++
		}
	}

	if recentAgains >= 2 {
		return domain.Struggling
	}
	st := card.Deadline
	nearEnd := st.Step >= (3*len(st.Offsets))/4
	if nearEnd && recentAgains == 0 && len(card.History) > 0 {
		return domain.Mastered
	}
	return domain.Learning
}

func classifyMemory(st *domain.MemoryState) domain.MasteryLabel {
	if st.Stability >= masteredStabilityDays && st.LapseCount <= masteredMaxLapses {
		return domain.Mastered
	}
	if st.Stability < strugglingStability || st.LapseCount >= strugglingMinLapses {
		return domain.Struggling
	}
	return domain.Learning
}
