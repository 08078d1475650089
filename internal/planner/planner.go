// Package planner produces meal and workout plan content. A Generator may
// call out to an AI service; Resilient guarantees content by falling back to
// deterministic local templates.
package planner

import (
	"context"

	"fitwell/backend/internal/calorie"
	"fitwell/backend/internal/domain"
)

// Generator produces plan content.
type Generator interface {
	GenerateMealPlan(ctx context.Context, req MealRequest) (*MealPlan, error)
	GenerateWorkout(ctx context.Context, req WorkoutRequest) (*WorkoutPlan, error)
}

// Calorie split across the three meals of a day.
const (
	BreakfastShare = 0.30
	LunchShare     = 0.35
	DinnerShare    = 0.35
)

type MealRequest struct {
	Days          int
	DailyCalories int
	Split         calorie.Split
	DietType      string
	Goal          domain.FitnessGoal
	Allergies     []string
	// Note is free text from a recalculation, passed through to the prompt.
	Note string
	// Recent is the tracked intake before the plan starts. Nil when nothing
	// was tracked.
	Recent *IntakeFeedback
}

// IntakeFeedback summarizes what the user actually ate over a trailing
// window.
type IntakeFeedback struct {
	DaysTracked  int
	DailyAverage domain.Macros
}

// PlannedItem is one food item as produced by a generator.
type PlannedItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (p PlannedItem) Macros() domain.Macros {
	return domain.Macros{Calories: p.Calories, Protein: p.Protein, Carbs: p.Carbs, Fat: p.Fat}
}

type DayMeals struct {
	Breakfast []PlannedItem `json:"breakfast"`
	Lunch     []PlannedItem `json:"lunch"`
	Dinner    []PlannedItem `json:"dinner"`
}

// For returns the items of one meal slot.
func (d DayMeals) For(mt domain.MealType) []PlannedItem {
	switch mt {
	case domain.MealBreakfast:
		return d.Breakfast
	case domain.MealLunch:
		return d.Lunch
	case domain.MealDinner:
		return d.Dinner
	}
	return nil
}

// MealPlan holds one DayMeals per plan day, in order.
type MealPlan struct {
	Days   []DayMeals        `json:"days"`
	Source domain.PlanSource `json:"source"`
}

type WorkoutRequest struct {
	Kind         domain.WorkoutKind
	Days         int
	DayNumber    int
	FitnessLevel domain.FitnessLevel
	Goal         domain.FitnessGoal
	WorkoutType  string
	Difficulty   float64
	Intensity    domain.Intensity
	// PreviousFeedback and FeedbackNotes describe the last rated daily plan.
	PreviousFeedback domain.Feedback
	FeedbackNotes    string
}

type WorkoutPlan struct {
	Name        string               `json:"name"`
	WorkoutType string               `json:"workoutType"`
	Days        []domain.TrainingDay `json:"days"`
	Source      domain.PlanSource    `json:"source"`
}

func (r WorkoutRequest) dayCount() int {
	if r.Kind == domain.WorkoutDaily || r.Days < 1 {
		return 1
	}
	return r.Days
}
