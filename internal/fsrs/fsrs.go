// Package fsrs implements the adaptive forgetting-curve scheduler: it tracks
// per-card stability and difficulty and picks the next interval that keeps
// expected recall probability at the desired retention target.
package fsrs

import (
	"math"
	"time"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
)

// minStability floors stability to avoid degenerate zero or negative values
// from edge-case inputs. Degeneracies are clamped, never raised.
const minStability = 0.1

// Params holds the tunable parameters of the memory model.
type Params struct {
	// InitStability seeds stability on a card's first review, indexed by
	// Rating − 1 (again, hard, good, easy).
	InitStability [4]float64

	// InitDifficulty and InitDifficultyShift seed difficulty on the first
	// review: D0 = InitDifficulty − InitDifficultyShift·(rating − good).
	InitDifficulty      float64
	InitDifficultyShift float64

	Growth               float64 // scales the stability gain on success
	StabilityDecay       float64 // S^(−StabilityDecay) saturates gains for stable cards
	RetrievabilityEffect float64 // scales the benefit of reviewing near-forgotten cards
	HardPenalty          float64 // multiplies the gain term for "hard" (< 1)
	EasyBonus            float64 // multiplies the gain term for "easy" (> 1)

	LapseFactor           float64 // scales regrown stability after a lapse
	LapseDifficultyWeight float64 // harder cards regrow less
	LapseStabilityWeight  float64 // prior stability contributes sublinearly
	LapseDecay            float64 // hard cap: S' ≤ S·LapseDecay (< 1)

	DifficultyStep float64 // difficulty shift per rating unit away from "good"

	DesiredRetention float64 // target recall probability at the next review
	MaxIntervalDays  int     // bound on representable due dates
}

// DefaultParams returns the stock parameter set. These are starting values,
// not fitted to any particular learner.
func DefaultParams() *Params {
	return &Params{
		InitStability:       [4]float64{0.6, 1.2, 2.5, 5.8},
		InitDifficulty:      5.0,
		InitDifficultyShift: 1.5,

		Growth:               0.35,
		StabilityDecay:       0.15,
		RetrievabilityEffect: 4.0,
		HardPenalty:          0.6,
		EasyBonus:            1.3,

		LapseFactor:           1.5,
		LapseDifficultyWeight: 0.25,
		LapseStabilityWeight:  0.4,
		LapseDecay:            0.6,

		DifficultyStep: 2.0,

		DesiredRetention: 0.9,
		MaxIntervalDays:  36500,
	}
}

// Retrievability estimates the probability of recalling a card with stability
// s after daysSince days: R = 0.9^(1 + t/S). It equals 0.9 immediately after
// a review and decays strictly from there.
func (p *Params) Retrievability(s float64, daysSince float64) float64 {
	if s < minStability {
		s = minStability
	}
	if daysSince < 0 {
		daysSince = 0
	}
	return math.Pow(0.9, 1+daysSince/s)
}

// CardRetrievability returns the current recall probability for a memory
// state. A never-reviewed card reports the post-review reset value, 0.9.
func (p *Params) CardRetrievability(st domain.MemoryState, today time.Time) float64 {
	if st.LastReview == nil {
		return 0.9
	}
	elapsed := float64(dates.DaysBetween(*st.LastReview, today))
	return p.Retrievability(st.Stability, elapsed)
}

// InitialState returns the seeded stability and difficulty for a card whose
// first review got the given rating.
func (p *Params) InitialState(r domain.Rating) (stability, difficulty float64) {
	stability = clampStability(p.InitStability[r-1])
	difficulty = clampDifficulty(p.InitDifficulty - p.InitDifficultyShift*float64(r-domain.Good))
	return stability, difficulty
}

// NextState applies one review to a memory state and returns the updated
// state: new stability and difficulty, incremented counters, and the next due
// date computed from the desired retention target. The input is not mutated.
func (p *Params) NextState(st domain.MemoryState, r domain.Rating, today time.Time) domain.MemoryState {
	today = dates.DayFloor(today)

	if st.LastReview == nil {
		// First review: seed from the rating rather than updating a prior state.
		st.Stability, st.Difficulty = p.InitialState(r)
	} else {
		elapsed := float64(dates.DaysBetween(*st.LastReview, today))
		retr := p.Retrievability(st.Stability, elapsed)
		if r == domain.Again {
			st.Stability = p.lapseStability(st.Stability, st.Difficulty, retr)
		} else {
			st.Stability = p.recallStability(st.Stability, st.Difficulty, retr, r)
		}
		st.Difficulty = p.nextDifficulty(st.Difficulty, r)
	}

	if r == domain.Again {
		st.LapseCount++
	}
	st.ReviewCount++
	st.LastReview = &today
	st.Due = dates.AddDays(today, p.NextIntervalDays(st.Stability))
	return st
}

// recallStability grows stability after a successful recall:
// S' = S·(1 + Growth·(11−D)·S^(−decay)·(e^(effect·(1−R)) − 1)·penalty·bonus).
// Gains are larger for easier cards and for reviews closer to forgetting.
func (p *Params) recallStability(s, d, retr float64, r domain.Rating) float64 {
	penalty := 1.0
	if r == domain.Hard {
		penalty = p.HardPenalty
	}
	bonus := 1.0
	if r == domain.Easy {
		bonus = p.EasyBonus
	}
	gain := p.Growth *
		(11 - d) *
		math.Pow(s, -p.StabilityDecay) *
		(math.Exp(p.RetrievabilityEffect*(1-retr)) - 1) *
		penalty * bonus
	return clampStability(s * (1 + gain))
}

// lapseStability shrinks stability after a lapse. The regrown value is capped
// at S·LapseDecay so a lapse always reduces stability.
func (p *Params) lapseStability(s, d, retr float64) float64 {
	regrown := p.LapseFactor *
		math.Pow(d, -p.LapseDifficultyWeight) *
		(math.Pow(s+1, p.LapseStabilityWeight) - 1) *
		math.Exp(p.RetrievabilityEffect * (1 - retr) * 0.2)
	capped := s * p.LapseDecay
	return clampStability(math.Min(regrown, capped))
}

// nextDifficulty shifts difficulty opposite to rating quality with linear
// damping toward the scale bounds: D' = D + (10−D)·ΔD/9, ΔD = −step·(r − good).
func (p *Params) nextDifficulty(d float64, r domain.Rating) float64 {
	delta := -p.DifficultyStep * float64(r-domain.Good)
	return clampDifficulty(d + (10-d)*delta/9)
}

// NextIntervalDays picks the interval after which retrievability decays to
// the desired retention target: I = round(S·ln(target)/ln(0.9)), clamped to
// [1, MaxIntervalDays].
func (p *Params) NextIntervalDays(stability float64) int {
	ivl := int(math.Round(stability * math.Log(p.DesiredRetention) / math.Log(0.9)))
	if ivl < 1 {
		ivl = 1
	}
	if ivl > p.MaxIntervalDays {
		ivl = p.MaxIntervalDays
	}
	return ivl
}

func clampStability(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < minStability {
		return minStability
	}
	return s
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
