package domain

import "time"

// ReviewLog records a single persisted review event for a card.
// Session-only requeues are never logged.
type ReviewLog struct {
	CardID    string
	Rating    Rating
	Timestamp time.Time
}
