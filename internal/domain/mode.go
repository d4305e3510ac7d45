package domain

// Mode selects which scheduler owns a deck and its cards.
type Mode string

const (
	// ModeDeadline schedules reviews against a fixed test date.
	ModeDeadline Mode = "deadline"
	// ModeMemoryModel schedules reviews with the adaptive forgetting-curve model.
	ModeMemoryModel Mode = "memory_model"
)

// IsValid reports whether m is a defined mode.
func (m Mode) IsValid() bool {
	return m == ModeDeadline || m == ModeMemoryModel
}

// MasteryLabel is the derived three-level summary of how well a card is known.
type MasteryLabel string

const (
	Struggling MasteryLabel = "struggling"
	Learning   MasteryLabel = "learning"
	Mastered   MasteryLabel = "mastered"
)
