// Package analytics holds the deterministic health formulas: heart-rate
// zones, activity trends, calorie burn and sleep classification.
package analytics

import (
	"math"

	"fitwell/backend/internal/domain"
)

// Zone is a target heart-rate band.
type Zone struct {
	MaxHR     int     `json:"maxHeartRate"`
	Lower     int     `json:"lower"`
	Upper     int     `json:"upper"`
	LowerPct  float64 `json:"lowerPct"`
	UpperPct  float64 `json:"upperPct"`
	Intensity string  `json:"intensity"`
}

// Contains reports whether bpm lies inside the band.
func (z Zone) Contains(bpm float64) bool {
	return bpm >= float64(z.Lower) && bpm <= float64(z.Upper)
}

// HeartRateZone returns the training zone for age and goal, using 220-age as
// the maximum heart rate.
func HeartRateZone(age int, goal domain.FitnessGoal) Zone {
	maxHR := 220 - age
	z := Zone{MaxHR: maxHR}
	switch goal {
	case domain.GoalLoseWeight:
		z.LowerPct, z.UpperPct, z.Intensity = 0.60, 0.70, "moderate"
	case domain.GoalGainMuscle:
		z.LowerPct, z.UpperPct, z.Intensity = 0.70, 0.85, "high"
	case domain.GoalImproveEndurance:
		z.LowerPct, z.UpperPct, z.Intensity = 0.65, 0.75, "moderate"
	default:
		z.LowerPct, z.UpperPct, z.Intensity = 0.50, 0.70, "low-moderate"
	}
	z.Lower = int(float64(maxHR) * z.LowerPct)
	z.Upper = int(float64(maxHR) * z.UpperPct)
	return z
}

// CaloriesBurned estimates kcal burned walking the given steps.
func CaloriesBurned(steps int, weightKg float64, age int, gender domain.Gender) float64 {
	if steps <= 0 || weightKg <= 0 {
		return 0
	}
	kcal := float64(steps) * 0.04 * weightKg / 70
	if gender.IsMale() {
		kcal *= 1.1
	}
	if age > 20 {
		kcal *= 1 - float64(age-20)*0.005
	}
	return math.Round(kcal*10) / 10
}

// SleepQuality classifies a night by duration.
func SleepQuality(hours float64) domain.SleepQuality {
	switch {
	case hours >= 7 && hours <= 9:
		return domain.SleepExcellent
	case hours >= 6 && hours <= 10:
		return domain.SleepGood
	case hours >= 5:
		return domain.SleepFair
	default:
		return domain.SleepPoor
	}
}
