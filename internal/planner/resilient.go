package planner

import (
	"context"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/logger"
)

// Resilient serves plans from a primary generator and falls back to the
// local templates when it fails or is not configured. It never returns an
// error.
type Resilient struct {
	primary Generator
	log     *logger.Logger
}

// NewResilient wraps primary. A nil primary always uses the templates.
func NewResilient(primary Generator, log *logger.Logger) *Resilient {
	return &Resilient{primary: primary, log: log}
}

func (r *Resilient) GenerateMealPlan(ctx context.Context, req MealRequest) (*MealPlan, error) {
	if r.primary != nil {
		plan, err := r.primary.GenerateMealPlan(ctx, req)
		if err == nil {
			return plan, nil
		}
		r.logFailure("meal plan", err)
	}
	return FallbackMealPlan(req.DietType, req.Days), nil
}

func (r *Resilient) GenerateWorkout(ctx context.Context, req WorkoutRequest) (*WorkoutPlan, error) {
	if r.primary != nil {
		plan, err := r.primary.GenerateWorkout(ctx, req)
		if err == nil {
			return plan, nil
		}
		r.logFailure("workout", err)
	}
	return FallbackWorkout(req), nil
}

func (r *Resilient) logFailure(what string, err error) {
	fields := []interface{}{"plan", what}
	if e, ok := apperr.As(err); ok {
		fields = append(fields, e.LogFields()...)
	} else {
		fields = append(fields, "error", err)
	}
	r.log.Warn("Plan generation failed, using fallback template", fields...)
}
