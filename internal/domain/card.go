package domain

import "time"

// HistoryLimit bounds the trailing rating history kept on a card.
const HistoryLimit = 10

// Card is a single front/back study unit. Exactly one of Deadline or Memory
// is populated, selected by Mode.
type Card struct {
	ID        string
	DeckID    string
	Front     string
	Back      string
	Media     []string // opaque references, not interpreted by the engine
	Hash      string   // content hash, set for source-owned cards
	Mode      Mode
	Deadline  *DeadlineState
	Memory    *MemoryState
	History   []Rating // trailing ratings, oldest first, bounded by HistoryLimit
	CreatedAt time.Time
}

// DeadlineState is the scheduling block for a card in ModeDeadline.
type DeadlineState struct {
	Deadline time.Time
	Offsets  []int // day offsets from card creation, non-decreasing, len >= 1
	Step     int   // index into Offsets
	Due      time.Time
	Mastery  MasteryLabel

	// AgainCount tracks consecutive failures within a study session.
	// It is never persisted across restarts.
	AgainCount int
}

// MemoryState is the scheduling block for a card in ModeMemoryModel.
type MemoryState struct {
	Stability   float64    // days, always > 0
	Difficulty  float64    // bounded to [1, 10]
	LastReview  *time.Time // nil before the first review
	ReviewCount int
	LapseCount  int
	Due         time.Time
}

// Validate checks that the card's mode tag matches its populated state block.
func (c *Card) Validate() error {
	switch c.Mode {
	case ModeDeadline:
		if c.Deadline == nil || c.Memory != nil {
			return ErrInconsistentModeState
		}
	case ModeMemoryModel:
		if c.Memory == nil || c.Deadline != nil {
			return ErrInconsistentModeState
		}
	default:
		return ErrInconsistentModeState
	}
	return nil
}

// DueDate returns the card's next due date for its active mode.
func (c *Card) DueDate() time.Time {
	if c.Mode == ModeDeadline && c.Deadline != nil {
		return c.Deadline.Due
	}
	if c.Memory != nil {
		return c.Memory.Due
	}
	return time.Time{}
}

// AppendHistory adds a rating to the trailing history, dropping the oldest
// entry once HistoryLimit is exceeded.
func (c *Card) AppendHistory(r Rating) {
	c.History = append(c.History, r)
	if len(c.History) > HistoryLimit {
		c.History = c.History[len(c.History)-HistoryLimit:]
	}
}

// Clone returns a deep copy of the card. Pointer fields are copied by value.
func (c Card) Clone() Card {
	out := c
	if c.Deadline != nil {
		ds := *c.Deadline
		ds.Offsets = append([]int(nil), c.Deadline.Offsets...)
		out.Deadline = &ds
	}
	if c.Memory != nil {
		ms := *c.Memory
		if c.Memory.LastReview != nil {
			lr := *c.Memory.LastReview
			ms.LastReview = &lr
		}
		out.Memory = &ms
	}
	out.Media = append([]string(nil), c.Media...)
	out.History = append([]Rating(nil), c.History...)
	return out
}
