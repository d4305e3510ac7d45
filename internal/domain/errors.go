package domain

import "errors"

// Validation failures returned by the engine before any state is mutated.
// Check with errors.Is.
var (
	ErrInvalidDeadline       = errors.New("deadline is not strictly in the future")
	ErrMissingDeadline       = errors.New("deadline-mode operation without a deadline")
	ErrInvalidRating         = errors.New("invalid rating")
	ErrInconsistentModeState = errors.New("card mode does not match populated state")
)
