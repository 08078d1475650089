package planner

import (
	"fmt"
	"math"
	"strings"

	"fitwell/backend/internal/domain"
)

func mealPrompt(req MealRequest) string {
	var b strings.Builder
	total := float64(req.DailyCalories)

	fmt.Fprintf(&b, "Create a %d-day meal plan for a person aiming for %d calories per day.\n", req.Days, req.DailyCalories)
	fmt.Fprintf(&b, "Split the calories as breakfast about %d kcal, lunch about %d kcal and dinner about %d kcal.\n",
		int(math.Round(total*BreakfastShare)), int(math.Round(total*LunchShare)), int(math.Round(total*DinnerShare)))
	fmt.Fprintf(&b, "Target macronutrient energy split: %.0f%% protein, %.0f%% carbohydrates, %.0f%% fat.\n",
		req.Split.Protein*100, req.Split.Carbs*100, req.Split.Fat*100)
	if req.DietType != "" {
		fmt.Fprintf(&b, "Diet type: %s.\n", req.DietType)
	}
	if req.Goal != "" {
		fmt.Fprintf(&b, "Fitness goal: %s.\n", humanize(string(req.Goal)))
	}
	if len(req.Allergies) > 0 {
		fmt.Fprintf(&b, "Never include: %s.\n", strings.Join(req.Allergies, ", "))
	}
	if r := req.Recent; r != nil && r.DaysTracked > 0 {
		fmt.Fprintf(&b, "Over the last %d tracked days the person ate on average %.0f kcal, %.0f g protein, %.0f g carbohydrates and %.0f g fat per day.\n",
			r.DaysTracked, r.DailyAverage.Calories, r.DailyAverage.Protein, r.DailyAverage.Carbs, r.DailyAverage.Fat)
	}
	if req.Note != "" {
		fmt.Fprintf(&b, "Context from recent tracking: %s\n", req.Note)
	}
	b.WriteString(`
Respond with JSON only, no commentary. Use day numbers as keys starting at "1":
{"1": {"breakfast": [{"name": "...", "calories": 0, "protein": 0, "carbs": 0, "fat": 0}],
       "lunch": [...], "dinner": [...]}}
Macronutrients are in grams. Every day needs at least one item for each meal.`)
	return b.String()
}

func workoutPrompt(req WorkoutRequest) string {
	var b strings.Builder
	if req.Kind == domain.WorkoutProgram {
		fmt.Fprintf(&b, "Design a %d-day workout program.\n", req.dayCount())
	} else {
		fmt.Fprintf(&b, "Design today's workout. This is day %d of a progressive daily plan.\n", req.DayNumber)
	}
	fmt.Fprintf(&b, "Fitness level: %s. Intensity: %s (difficulty multiplier %.2f relative to a beginner baseline of 1.0).\n",
		orDefault(string(req.FitnessLevel), "beginner"), req.Intensity, req.Difficulty)
	if req.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s.\n", humanize(string(req.Goal)))
	}
	if req.WorkoutType != "" {
		fmt.Fprintf(&b, "Preferred workout type: %s.\n", req.WorkoutType)
	}
	switch req.PreviousFeedback {
	case domain.FeedbackEasy:
		b.WriteString("The user rated the previous workout as too easy. Make it noticeably harder.\n")
	case domain.FeedbackDifficult:
		b.WriteString("The user rated the previous workout as too difficult. Make it easier.\n")
	case domain.FeedbackJustRight:
		b.WriteString("The user rated the previous workout as just right. Keep a similar level.\n")
	}
	if req.FeedbackNotes != "" {
		fmt.Fprintf(&b, "User notes on the previous workout: %s\n", req.FeedbackNotes)
	}
	b.WriteString(`
Respond with JSON only, no commentary:
{"name": "...", "workout_type": "...", "days": [{"name": "...", "focus": "...",
  "exercises": [{"name": "...", "type": "strength|cardio|core|mobility", "sets": 3, "reps": 10, "duration_min": 0, "calories": 0}]}]}
Every exercise needs reps or duration_min.`)
	return b.String()
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
