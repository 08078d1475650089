package planner

import (
	"fmt"
	"math"
	"strings"

	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/feedback"
)

var plantBasedDay = DayMeals{
	Breakfast: []PlannedItem{
		{Name: "Oatmeal with Berries", Calories: 250, Protein: 8, Carbs: 45, Fat: 5},
		{Name: "Banana", Calories: 105, Protein: 1, Carbs: 27, Fat: 0},
	},
	Lunch: []PlannedItem{
		{Name: "Quinoa Salad", Calories: 350, Protein: 12, Carbs: 55, Fat: 10},
		{Name: "Mixed Vegetables", Calories: 80, Protein: 3, Carbs: 15, Fat: 1},
	},
	Dinner: []PlannedItem{
		{Name: "Tofu Stir Fry", Calories: 300, Protein: 18, Carbs: 25, Fat: 15},
		{Name: "Brown Rice", Calories: 215, Protein: 5, Carbs: 45, Fat: 2},
	},
}

var standardDay = DayMeals{
	Breakfast: []PlannedItem{
		{Name: "Scrambled Eggs", Calories: 200, Protein: 14, Carbs: 2, Fat: 15},
		{Name: "Whole Wheat Toast", Calories: 140, Protein: 6, Carbs: 26, Fat: 2},
	},
	Lunch: []PlannedItem{
		{Name: "Grilled Chicken Breast", Calories: 280, Protein: 53, Carbs: 0, Fat: 6},
		{Name: "Sweet Potato", Calories: 180, Protein: 4, Carbs: 41, Fat: 0},
	},
	Dinner: []PlannedItem{
		{Name: "Baked Salmon", Calories: 350, Protein: 39, Carbs: 0, Fat: 20},
		{Name: "Quinoa", Calories: 220, Protein: 8, Carbs: 39, Fat: 4},
	},
}

// FallbackMealPlan returns the template plan for dietType. The result depends
// only on its arguments: vegetarian and vegan diets get the plant-based day,
// everything else the standard day, repeated days times.
func FallbackMealPlan(dietType string, days int) *MealPlan {
	if days < 1 {
		days = 1
	}
	tmpl := standardDay
	switch strings.ToLower(strings.TrimSpace(dietType)) {
	case "vegetarian", "vegan":
		tmpl = plantBasedDay
	}
	plan := &MealPlan{Days: make([]DayMeals, days), Source: domain.SourceFallback}
	for i := range plan.Days {
		plan.Days[i] = DayMeals{
			Breakfast: append([]PlannedItem(nil), tmpl.Breakfast...),
			Lunch:     append([]PlannedItem(nil), tmpl.Lunch...),
			Dinner:    append([]PlannedItem(nil), tmpl.Dinner...),
		}
	}
	return plan
}

type exerciseTemplate struct {
	name        string
	kind        string
	sets        int
	reps        int
	durationMin int
	calories    float64
}

type dayTemplate struct {
	name      string
	focus     string
	exercises []exerciseTemplate
}

var workoutRotation = []dayTemplate{
	{
		name:  "Full Body Strength",
		focus: "strength",
		exercises: []exerciseTemplate{
			{name: "Bodyweight Squats", kind: "strength", sets: 3, reps: 12, calories: 40},
			{name: "Push-ups", kind: "strength", sets: 3, reps: 10, calories: 35},
			{name: "Glute Bridges", kind: "strength", sets: 3, reps: 12, calories: 30},
			{name: "Plank", kind: "core", sets: 3, durationMin: 1, calories: 15},
		},
	},
	{
		name:  "Cardio Conditioning",
		focus: "cardio",
		exercises: []exerciseTemplate{
			{name: "Brisk Walk or Jog", kind: "cardio", durationMin: 20, calories: 160},
			{name: "Jumping Jacks", kind: "cardio", sets: 3, reps: 30, calories: 45},
			{name: "Mountain Climbers", kind: "cardio", sets: 3, reps: 20, calories: 40},
		},
	},
	{
		name:  "Lower Body and Core",
		focus: "legs",
		exercises: []exerciseTemplate{
			{name: "Reverse Lunges", kind: "strength", sets: 3, reps: 10, calories: 45},
			{name: "Wall Sit", kind: "strength", sets: 3, durationMin: 1, calories: 20},
			{name: "Calf Raises", kind: "strength", sets: 3, reps: 15, calories: 20},
			{name: "Dead Bug", kind: "core", sets: 3, reps: 10, calories: 20},
		},
	},
	{
		name:  "Mobility and Recovery",
		focus: "mobility",
		exercises: []exerciseTemplate{
			{name: "Cat-Cow Stretch", kind: "mobility", sets: 2, reps: 10, calories: 10},
			{name: "Hip Flexor Stretch", kind: "mobility", durationMin: 5, calories: 10},
			{name: "Easy Cycling or Walk", kind: "cardio", durationMin: 15, calories: 90},
		},
	},
}

// FallbackWorkout returns a template workout scaled by difficulty. Daily plans
// rotate through the templates by day number; programs take consecutive
// templates for each day.
func FallbackWorkout(req WorkoutRequest) *WorkoutPlan {
	difficulty := req.Difficulty
	if difficulty <= 0 {
		difficulty = feedback.Baseline(req.FitnessLevel)
	}

	n := req.dayCount()
	offset := 0
	if req.Kind == domain.WorkoutDaily && req.DayNumber > 0 {
		offset = req.DayNumber - 1
	}

	days := make([]domain.TrainingDay, n)
	for i := range days {
		tmpl := workoutRotation[(offset+i)%len(workoutRotation)]
		day := domain.TrainingDay{Index: i, Name: tmpl.name, Focus: tmpl.focus}
		for j, e := range tmpl.exercises {
			day.Exercises = append(day.Exercises, domain.Exercise{
				Index:       j,
				Name:        e.name,
				Type:        e.kind,
				Sets:        e.sets,
				Reps:        scale(e.reps, difficulty),
				DurationMin: scale(e.durationMin, difficulty),
				Calories:    math.Round(e.calories * difficulty),
			})
		}
		days[i] = day
	}

	name := days[0].Name
	if req.Kind == domain.WorkoutProgram {
		name = fmt.Sprintf("%d-Day %s Program", n, levelTitle(req.FitnessLevel))
	}
	workoutType := req.WorkoutType
	if workoutType == "" {
		workoutType = "mixed"
	}
	return &WorkoutPlan{Name: name, WorkoutType: workoutType, Days: days, Source: domain.SourceFallback}
}

func scale(v int, f float64) int {
	if v == 0 {
		return 0
	}
	s := int(math.Round(float64(v) * f))
	if s < 1 {
		return 1
	}
	return s
}

func levelTitle(l domain.FitnessLevel) string {
	switch l {
	case domain.LevelIntermediate:
		return "Intermediate"
	case domain.LevelAdvanced:
		return "Advanced"
	default:
		return "Beginner"
	}
}
