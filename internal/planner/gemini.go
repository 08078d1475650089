package planner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
)

const defaultGeminiTimeout = 45 * time.Second

// contentModel is the part of *genai.GenerativeModel the generator uses.
type contentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator produces plans with a Gemini model.
type GeminiGenerator struct {
	model   contentModel
	timeout time.Duration
}

// NewGeminiClient opens a Gemini API client. The caller closes it.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

func NewGeminiGenerator(client *genai.Client, modelName string, timeout time.Duration) *GeminiGenerator {
	m := client.GenerativeModel(modelName)
	m.SetTemperature(0.7)
	return newGeminiGenerator(m, timeout)
}

func newGeminiGenerator(m contentModel, timeout time.Duration) *GeminiGenerator {
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}
	return &GeminiGenerator{model: m, timeout: timeout}
}

func (g *GeminiGenerator) GenerateMealPlan(ctx context.Context, req MealRequest) (*MealPlan, error) {
	text, err := g.generate(ctx, mealPrompt(req))
	if err != nil {
		return nil, err
	}
	byDay, err := ExtractJSON(text, mealPlanValidator(req.Days))
	if err != nil {
		return nil, apperr.ExternalGenerationFailure(err)
	}
	plan := &MealPlan{Days: make([]DayMeals, req.Days), Source: domain.SourceAI}
	for i := range plan.Days {
		plan.Days[i] = byDay[strconv.Itoa(i+1)]
	}
	return plan, nil
}

type workoutResponse struct {
	Name        string            `json:"name"`
	WorkoutType string            `json:"workout_type"`
	Days        []workoutDayReply `json:"days"`
}

type workoutDayReply struct {
	Name      string          `json:"name"`
	Focus     string          `json:"focus"`
	Exercises []exerciseReply `json:"exercises"`
}

type exerciseReply struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	DurationMin int     `json:"duration_min"`
	Calories    float64 `json:"calories"`
}

func (g *GeminiGenerator) GenerateWorkout(ctx context.Context, req WorkoutRequest) (*WorkoutPlan, error) {
	text, err := g.generate(ctx, workoutPrompt(req))
	if err != nil {
		return nil, err
	}
	n := req.dayCount()
	resp, err := ExtractJSON(text, workoutValidator(n))
	if err != nil {
		return nil, apperr.ExternalGenerationFailure(err)
	}

	plan := &WorkoutPlan{
		Name:        resp.Name,
		WorkoutType: orDefault(resp.WorkoutType, orDefault(req.WorkoutType, "mixed")),
		Days:        make([]domain.TrainingDay, n),
		Source:      domain.SourceAI,
	}
	for i := 0; i < n; i++ {
		d := resp.Days[i]
		day := domain.TrainingDay{Index: i, Name: d.Name, Focus: d.Focus}
		for j, e := range d.Exercises {
			day.Exercises = append(day.Exercises, domain.Exercise{
				Index:       j,
				Name:        e.Name,
				Type:        e.Type,
				Sets:        e.Sets,
				Reps:        e.Reps,
				DurationMin: e.DurationMin,
				Calories:    e.Calories,
			})
		}
		plan.Days[i] = day
	}
	if plan.Name == "" {
		plan.Name = plan.Days[0].Name
	}
	return plan, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.ExternalGenerationFailure(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", apperr.ExternalGenerationFailure(errors.New("empty response"))
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func mealPlanValidator(days int) Validator[map[string]DayMeals] {
	return func(byDay map[string]DayMeals) error {
		for i := 1; i <= days; i++ {
			day, ok := byDay[strconv.Itoa(i)]
			if !ok {
				return fmt.Errorf("day %d missing", i)
			}
			for _, mt := range domain.MealTypes {
				items := day.For(mt)
				if len(items) == 0 {
					return fmt.Errorf("day %d has no %s items", i, mt)
				}
				for _, it := range items {
					if strings.TrimSpace(it.Name) == "" {
						return fmt.Errorf("day %d %s has an unnamed item", i, mt)
					}
					if it.Calories < 0 || it.Protein < 0 || it.Carbs < 0 || it.Fat < 0 {
						return fmt.Errorf("day %d %s item %q has negative values", i, mt, it.Name)
					}
				}
			}
		}
		return nil
	}
}

func workoutValidator(days int) Validator[workoutResponse] {
	return func(w workoutResponse) error {
		if len(w.Days) < days {
			return fmt.Errorf("expected %d days, got %d", days, len(w.Days))
		}
		for i := 0; i < days; i++ {
			if len(w.Days[i].Exercises) == 0 {
				return fmt.Errorf("day %d has no exercises", i+1)
			}
			for _, e := range w.Days[i].Exercises {
				if strings.TrimSpace(e.Name) == "" {
					return fmt.Errorf("day %d has an unnamed exercise", i+1)
				}
				if e.Reps <= 0 && e.DurationMin <= 0 {
					return fmt.Errorf("exercise %q needs reps or duration", e.Name)
				}
			}
		}
		return nil
	}
}
