package domain

import "time"

// Deck is a named collection of cards sharing one scheduling mode.
type Deck struct {
	ID   string
	Name string
	Mode Mode

	// Deadline is set only in ModeDeadline; nil otherwise.
	Deadline *time.Time

	// DeadlinePromptShown records that the one-time post-deadline prompt
	// has already been presented for this deck.
	DeadlinePromptShown bool

	CreatedAt time.Time
}

// Validate checks that the deck's mode and deadline are consistent.
func (d *Deck) Validate() error {
	switch d.Mode {
	case ModeDeadline:
		if d.Deadline == nil {
			return ErrMissingDeadline
		}
	case ModeMemoryModel:
		if d.Deadline != nil {
			return ErrInconsistentModeState
		}
	default:
		return ErrInconsistentModeState
	}
	return nil
}
