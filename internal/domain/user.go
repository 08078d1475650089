package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// IsMale compares case-insensitively; every other value selects the
// non-male formula branches.
func (g Gender) IsMale() bool {
	return strings.EqualFold(strings.TrimSpace(string(g)), string(GenderMale))
}

type FitnessGoal string

const (
	GoalLoseWeight       FitnessGoal = "lose_weight"
	GoalGainMuscle       FitnessGoal = "gain_muscle"
	GoalMaintain         FitnessGoal = "maintain"
	GoalImproveEndurance FitnessGoal = "improve_endurance"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

func (l FitnessLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Profile holds the body metrics and preferences used by plan logic.
// Zero values mean "not provided".
type Profile struct {
	HeightCm      float64       `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg      float64       `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	BirthDate     *time.Time    `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Gender        Gender        `bson:"gender,omitempty" json:"gender,omitempty"`
	FitnessGoal   FitnessGoal   `bson:"fitnessGoal,omitempty" json:"fitnessGoal,omitempty"`
	ActivityLevel ActivityLevel `bson:"activityLevel,omitempty" json:"activityLevel,omitempty"`
	FitnessLevel  FitnessLevel  `bson:"fitnessLevel,omitempty" json:"fitnessLevel,omitempty"`
	DietType      string        `bson:"dietType,omitempty" json:"dietType,omitempty"`
	Allergies     []string      `bson:"allergies,omitempty" json:"allergies,omitempty"`
}

// MissingFields names the metrics needed for calorie targets that are not
// set yet.
func (p Profile) MissingFields() []string {
	var missing []string
	if p.HeightCm <= 0 {
		missing = append(missing, "height")
	}
	if p.WeightKg <= 0 {
		missing = append(missing, "weight")
	}
	if p.BirthDate == nil || p.BirthDate.IsZero() {
		missing = append(missing, "birth_date")
	}
	if p.Gender == "" {
		missing = append(missing, "gender")
	}
	return missing
}

// User is an account holder. The profile is embedded in the same document.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Profile      Profile            `bson:"profile" json:"profile"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
