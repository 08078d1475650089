// Package feedback turns the previous cycle's outcome into the next cycle's
// targets: workout difficulty from the last daily rating, and meal calories
// from tracked intake.
package feedback

import "fitwell/backend/internal/domain"

const (
	EasyFactor      = 1.15
	DifficultFactor = 0.85
)

// State is the feedback state the next daily plan is derived from.
type State string

const (
	StateNoHistory State = "no_history"
	StateEasy      State = "easy"
	StateJustRight State = "just_right"
	StateDifficult State = "difficult"
	StateUnrated   State = "unrated"
)

// DailyOutcome is what the engine reads from the previous daily plan.
type DailyOutcome struct {
	DayNumber  int
	Difficulty float64
	Feedback   domain.Feedback
}

// DailyTarget describes the next daily plan.
type DailyTarget struct {
	DayNumber  int
	Difficulty float64
	Intensity  domain.Intensity
	State      State
	// PreviousFeedback is empty when there was no rated previous plan.
	PreviousFeedback domain.Feedback
}

// Baseline is the starting difficulty for a declared fitness level.
func Baseline(level domain.FitnessLevel) float64 {
	switch level {
	case domain.LevelIntermediate:
		return 1.25
	case domain.LevelAdvanced:
		return 1.5
	default:
		return 1.0
	}
}

// IntensityFor maps a difficulty multiplier onto the coarse intensity label.
func IntensityFor(difficulty float64) domain.Intensity {
	switch {
	case difficulty < 1.15:
		return domain.IntensityLow
	case difficulty < 1.45:
		return domain.IntensityModerate
	default:
		return domain.IntensityHigh
	}
}

// NextDay derives the next daily plan from the immediately preceding one.
// Only that plan's rating is read; earlier ratings have no effect beyond what
// they already did to prev.Difficulty.
func NextDay(prev *DailyOutcome, level domain.FitnessLevel) DailyTarget {
	if prev == nil {
		d := Baseline(level)
		return DailyTarget{DayNumber: 1, Difficulty: d, Intensity: IntensityFor(d), State: StateNoHistory}
	}

	base := prev.Difficulty
	if base <= 0 {
		base = Baseline(level)
	}

	t := DailyTarget{DayNumber: prev.DayNumber + 1, PreviousFeedback: prev.Feedback}
	switch prev.Feedback {
	case domain.FeedbackEasy:
		t.State, t.Difficulty = StateEasy, base*EasyFactor
	case domain.FeedbackDifficult:
		t.State, t.Difficulty = StateDifficult, base*DifficultFactor
	case domain.FeedbackJustRight:
		t.State, t.Difficulty = StateJustRight, base
	default:
		t.State, t.Difficulty = StateUnrated, base
	}
	t.Intensity = IntensityFor(t.Difficulty)
	return t
}
