package web

import (
	"time"

	"github.com/cianmurphy/decksched/internal/domain"
	"github.com/cianmurphy/decksched/internal/engine"
)

// cardView is the JSON shape of a card, flattening the active state block.
type cardView struct {
	ID      string   `json:"id"`
	DeckID  string   `json:"deck_id"`
	Front   string   `json:"front"`
	Back    string   `json:"back"`
	Media   []string `json:"media,omitempty"`
	Mode    string   `json:"mode"`
	Due     string   `json:"due"`
	Mastery string   `json:"mastery"`

	// deadline mode
	Step         *int   `json:"step,omitempty"`
	ScheduleLen  *int   `json:"schedule_len,omitempty"`
	DeadlineDate string `json:"deadline,omitempty"`

	// memory-model mode
	Stability      *float64 `json:"stability,omitempty"`
	Difficulty     *float64 `json:"difficulty,omitempty"`
	Retrievability *float64 `json:"retrievability,omitempty"`
	ReviewCount    *int     `json:"review_count,omitempty"`
	LapseCount     *int     `json:"lapse_count,omitempty"`
}

func (s *Server) cardToView(c domain.Card, today time.Time) cardView {
	v := cardView{
		ID:     c.ID,
		DeckID: c.DeckID,
		Front:  c.Front,
		Back:   c.Back,
		Media:  c.Media,
		Mode:   string(c.Mode),
		Due:    c.DueDate().Format(dateLayout),
	}
	if label, err := engine.Classify(c); err == nil {
		v.Mastery = string(label)
	}
	if c.Deadline != nil {
		step := c.Deadline.Step
		n := len(c.Deadline.Offsets)
		v.Step = &step
		v.ScheduleLen = &n
		v.DeadlineDate = c.Deadline.Deadline.Format(dateLayout)
	}
	if c.Memory != nil {
		st, d := c.Memory.Stability, c.Memory.Difficulty
		retr := s.engine.Params().CardRetrievability(*c.Memory, today)
		rc, lc := c.Memory.ReviewCount, c.Memory.LapseCount
		v.Stability = &st
		v.Difficulty = &d
		v.Retrievability = &retr
		v.ReviewCount = &rc
		v.LapseCount = &lc
	}
	return v
}
