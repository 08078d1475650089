// Package calorie estimates daily energy needs with the revised
// Harris-Benedict equations.
package calorie

import (
	"time"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
)

// DefaultMultiplier applies to unknown or empty activity levels.
const DefaultMultiplier = 1.2

var multipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

// BMR returns the basal metabolic rate in kcal/day.
func BMR(age int, gender domain.Gender, heightCm, weightKg float64) float64 {
	a := float64(age)
	if gender.IsMale() {
		return 88.36 + 13.4*weightKg + 4.8*heightCm - 5.7*a
	}
	return 447.6 + 9.2*weightKg + 3.1*heightCm - 4.3*a
}

// Multiplier returns the activity factor for level.
func Multiplier(level domain.ActivityLevel) float64 {
	if m, ok := multipliers[level]; ok {
		return m
	}
	return DefaultMultiplier
}

// Target returns the daily calorie target, truncated toward zero.
func Target(age int, gender domain.Gender, heightCm, weightKg float64, level domain.ActivityLevel) int {
	return int(BMR(age, gender, heightCm, weightKg) * Multiplier(level))
}

// AgeOn returns the age in whole years on the given day.
func AgeOn(birth, today time.Time) int {
	birth, today = birth.UTC(), today.UTC()
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}

// ForProfile computes the target for a stored profile. An empty level falls
// back to the profile's own activity level.
func ForProfile(p domain.Profile, level domain.ActivityLevel, today time.Time) (int, error) {
	missing := p.MissingFields()
	if len(missing) > 0 {
		return 0, apperr.IncompleteProfile(missing)
	}
	if level == "" {
		level = p.ActivityLevel
	}
	return Target(AgeOn(*p.BirthDate, today), p.Gender, p.HeightCm, p.WeightKg, level), nil
}
