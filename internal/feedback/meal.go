package feedback

import (
	"errors"
	"fmt"
	"math"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/calorie"
	"fitwell/backend/internal/intake"
)

const (
	// AdjustmentThreshold is the daily deficit or surplus, in kcal, beyond
	// which the target moves.
	AdjustmentThreshold = 200
	AdjustmentStep      = 100
)

const onTrackNote = "You're on track! Maintaining current calorie level."

// Adjustment is the result of recalculating a meal plan target.
type Adjustment struct {
	PreviousTarget int           `json:"previousTarget"`
	NewTarget      int           `json:"newTarget"`
	AverageIntake  float64       `json:"averageIntake"`
	DailyDeficit   float64       `json:"dailyDeficit"`
	DaysTracked    int           `json:"daysTracked"`
	Split          calorie.Split `json:"macroSplit"`
	Note           string        `json:"note"`
}

// Recalculate compares the average tracked intake with target and moves the
// target one step toward what the user actually eats.
func Recalculate(target int, s intake.Summary) (Adjustment, error) {
	avg, err := s.DailyAverage()
	if errors.Is(err, intake.ErrInsufficientData) {
		return Adjustment{}, apperr.InsufficientHistory("meals")
	}
	if err != nil {
		return Adjustment{}, err
	}

	deficit := float64(target) - avg.Calories
	adj := Adjustment{
		PreviousTarget: target,
		NewTarget:      target,
		AverageIntake:  math.Round(avg.Calories*10) / 10,
		DailyDeficit:   math.Round(deficit*10) / 10,
		DaysTracked:    s.DaysTracked,
		Split:          calorie.SplitOf(s.Totals),
		Note:           onTrackNote,
	}
	switch {
	case deficit > AdjustmentThreshold:
		adj.NewTarget = target + AdjustmentStep
		adj.Note = fmt.Sprintf("You've been eating %d calories below target. Increasing portions slightly.", int(deficit))
	case deficit < -AdjustmentThreshold:
		adj.NewTarget = target - AdjustmentStep
		adj.Note = fmt.Sprintf("You've been eating %d calories above target. Reducing portions slightly.", int(-deficit))
	}
	return adj, nil
}
