package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/feedback"
	"fitwell/backend/internal/lock"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/planner"
	"fitwell/backend/internal/repository"
)

// GenerateDailyInput may declare a fitness level; the profile's level is
// used otherwise.
type GenerateDailyInput struct {
	WorkoutType  string              `json:"workoutType"`
	FitnessLevel domain.FitnessLevel `json:"fitnessLevel"`
}

type GenerateProgramInput struct {
	Days         int                 `json:"days"`
	WorkoutType  string              `json:"workoutType"`
	FitnessLevel domain.FitnessLevel `json:"fitnessLevel"`
	ForceNew     bool                `json:"forceNew"`
}

// TrackWorkoutInput marks an exercise or a training day. Difficulty is
// optional.
type TrackWorkoutInput struct {
	Completed  bool            `json:"completed"`
	Difficulty domain.Feedback `json:"difficulty"`
}

type CompleteWorkoutInput struct {
	Feedback domain.Feedback `json:"feedback"`
	Notes    string          `json:"notes"`
}

type DailyWorkoutResult struct {
	Workout       *domain.Workout `json:"workout"`
	Created       bool            `json:"created"`
	FeedbackState feedback.State  `json:"feedbackState,omitempty"`
}

type WorkoutDetail struct {
	Workout  *domain.Workout          `json:"workout"`
	Tracking []domain.WorkoutTracking `json:"tracking"`
}

type WorkoutService interface {
	GenerateDaily(ctx context.Context, userID string, in GenerateDailyInput) (*DailyWorkoutResult, error)
	GetDaily(ctx context.Context, userID string, date time.Time) (*WorkoutDetail, error)
	GenerateProgram(ctx context.Context, userID string, in GenerateProgramInput) (*domain.Workout, error)
	TrackExercise(ctx context.Context, userID, workoutID string, dayIndex, index int, in TrackWorkoutInput) (*domain.WorkoutTracking, error)
	TrackDay(ctx context.Context, userID, workoutID string, dayIndex int, in TrackWorkoutInput) (*domain.WorkoutTracking, error)
	Complete(ctx context.Context, userID, workoutID string, in CompleteWorkoutInput) (*domain.Workout, error)
	History(ctx context.Context, userID string, days int) ([]domain.Workout, error)
}

type WorkoutDeps struct {
	Users      repository.UserRepository
	Workouts   repository.WorkoutRepository
	Tracking   repository.WorkoutTrackingRepository
	UnitOfWork repository.UnitOfWork
	Generator  planner.Generator
	Locker     lock.Locker
	Log        *logger.Logger
	Settings   PlanSettings
	Now        Clock
}

type workoutService struct {
	users     repository.UserRepository
	workouts  repository.WorkoutRepository
	tracking  repository.WorkoutTrackingRepository
	uow       repository.UnitOfWork
	generator planner.Generator
	locker    lock.Locker
	log       *logger.Logger
	settings  PlanSettings
	now       Clock
}

func NewWorkoutService(d WorkoutDeps) WorkoutService {
	if d.Now == nil {
		d.Now = systemClock
	}
	return &workoutService{
		users:     d.Users,
		workouts:  d.Workouts,
		tracking:  d.Tracking,
		uow:       d.UnitOfWork,
		generator: d.Generator,
		locker:    d.Locker,
		log:       d.Log,
		settings:  d.Settings.withDefaults(),
		now:       d.Now,
	}
}

// fitnessLevel picks the declared level, then the profile's, then beginner.
func fitnessLevel(declared domain.FitnessLevel, p domain.Profile) (domain.FitnessLevel, error) {
	switch {
	case declared != "":
		if !declared.Valid() {
			return "", apperr.Validation("unknown fitnessLevel %q", declared)
		}
		return declared, nil
	case p.FitnessLevel != "":
		return p.FitnessLevel, nil
	}
	return domain.LevelBeginner, nil
}

// GenerateDaily returns today's daily workout, creating it from the previous
// day's rating when it does not exist yet.
func (s *workoutService) GenerateDaily(ctx context.Context, userID string, in GenerateDailyInput) (*DailyWorkoutResult, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	level, err := fitnessLevel(in.FitnessLevel, user.Profile)
	if err != nil {
		return nil, err
	}
	today := domain.DateOnly(s.now())

	var result *DailyWorkoutResult
	err = withUserLock(ctx, s.locker, s.log, "workout-daily", user.ID, s.settings.LockTTL, func() error {
		existing, err := s.workouts.GetDaily(ctx, user.ID, today)
		if err == nil {
			result = &DailyWorkoutResult{Workout: existing}
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		var prev *feedback.DailyOutcome
		var notes string
		last, err := s.workouts.LatestDailyBefore(ctx, user.ID, today)
		switch {
		case err == nil:
			prev = &feedback.DailyOutcome{DayNumber: last.DayNumber, Difficulty: last.TargetDifficulty, Feedback: last.Feedback}
			notes = last.FeedbackNotes
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		target := feedback.NextDay(prev, level)

		plan, err := s.generator.GenerateWorkout(ctx, planner.WorkoutRequest{
			Kind:             domain.WorkoutDaily,
			Days:             1,
			DayNumber:        target.DayNumber,
			FitnessLevel:     level,
			Goal:             user.Profile.FitnessGoal,
			WorkoutType:      strings.TrimSpace(in.WorkoutType),
			Difficulty:       target.Difficulty,
			Intensity:        target.Intensity,
			PreviousFeedback: target.PreviousFeedback,
			FeedbackNotes:    notes,
		})
		if err != nil {
			return apperr.ExternalGenerationFailure(err)
		}
		if len(plan.Days) == 0 {
			return apperr.ExternalGenerationFailure(errors.New("generator returned no training day"))
		}

		now := s.now().UTC()
		w := &domain.Workout{
			UserID:           user.ID,
			Kind:             domain.WorkoutDaily,
			Date:             today,
			EndDate:          today,
			Name:             plan.Name,
			WorkoutType:      plan.WorkoutType,
			Intensity:        target.Intensity,
			FitnessLevel:     level,
			Goal:             user.Profile.FitnessGoal,
			DayNumber:        target.DayNumber,
			TargetDifficulty: target.Difficulty,
			Content:          domain.WorkoutContent{SchemaVersion: domain.WorkoutContentSchemaVersion, Days: plan.Days[:1]},
			Source:           plan.Source,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.workouts.Create(ctx, w); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				return err
			}
			// Another instance stored today's plan first.
			existing, err := s.workouts.GetDaily(ctx, user.ID, today)
			if err != nil {
				return err
			}
			result = &DailyWorkoutResult{Workout: existing}
			return nil
		}

		s.log.Info("Stored daily workout",
			"user_id", user.ID.Hex(), "day_number", w.DayNumber, "difficulty", w.TargetDifficulty,
			"feedback_state", target.State, "source", w.Source)
		result = &DailyWorkoutResult{Workout: w, Created: true, FeedbackState: target.State}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *workoutService) GetDaily(ctx context.Context, userID string, date time.Time) (*WorkoutDetail, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	w, err := s.workouts.GetDaily(ctx, uid, domain.DateOnly(date))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NoActivePlan("workout")
	}
	if err != nil {
		return nil, err
	}
	tracking, err := s.tracking.ListByWorkout(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	return &WorkoutDetail{Workout: w, Tracking: tracking}, nil
}

// GenerateProgram stores a multi-day program starting today. A program still
// running is only replaced when in.ForceNew is set.
func (s *workoutService) GenerateProgram(ctx context.Context, userID string, in GenerateProgramInput) (*domain.Workout, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	days, err := s.settings.planDays(in.Days)
	if err != nil {
		return nil, err
	}
	level, err := fitnessLevel(in.FitnessLevel, user.Profile)
	if err != nil {
		return nil, err
	}
	today := domain.DateOnly(s.now())
	difficulty := feedback.Baseline(level)

	var w *domain.Workout
	err = withUserLock(ctx, s.locker, s.log, "workout-program", user.ID, s.settings.LockTTL, func() error {
		if !in.ForceNew {
			active, err := s.workouts.CountProgramsEndingFrom(ctx, user.ID, today)
			if err != nil {
				return err
			}
			if active > 0 {
				return apperr.ActivePlanConflict("workout", active)
			}
		}

		plan, err := s.generator.GenerateWorkout(ctx, planner.WorkoutRequest{
			Kind:         domain.WorkoutProgram,
			Days:         days,
			FitnessLevel: level,
			Goal:         user.Profile.FitnessGoal,
			WorkoutType:  strings.TrimSpace(in.WorkoutType),
			Difficulty:   difficulty,
			Intensity:    feedback.IntensityFor(difficulty),
		})
		if err != nil {
			return apperr.ExternalGenerationFailure(err)
		}
		if len(plan.Days) == 0 {
			return apperr.ExternalGenerationFailure(errors.New("generator returned no training days"))
		}

		now := s.now().UTC()
		w = &domain.Workout{
			UserID:           user.ID,
			Kind:             domain.WorkoutProgram,
			Date:             today,
			EndDate:          domain.AddDays(today, len(plan.Days)-1),
			Name:             plan.Name,
			WorkoutType:      plan.WorkoutType,
			Intensity:        feedback.IntensityFor(difficulty),
			FitnessLevel:     level,
			Goal:             user.Profile.FitnessGoal,
			TargetDifficulty: difficulty,
			Content:          domain.WorkoutContent{SchemaVersion: domain.WorkoutContentSchemaVersion, Days: plan.Days},
			Source:           plan.Source,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return s.uow.WithinTx(ctx, func(txCtx context.Context) error {
			if _, err := s.workouts.DeleteProgramsEndingFrom(txCtx, user.ID, today); err != nil {
				return err
			}
			return s.workouts.Create(txCtx, w)
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Stored workout program", "user_id", user.ID.Hex(), "days", len(w.Content.Days), "source", w.Source)
	return w, nil
}

// ownedWorkout loads a workout and hides it from users who do not own it.
func (s *workoutService) ownedWorkout(ctx context.Context, userID, workoutID string) (primitive.ObjectID, *domain.Workout, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return uid, nil, err
	}
	wid, err := parseObjectID(workoutID, "workout")
	if err != nil {
		return uid, nil, err
	}
	w, err := s.workouts.GetByID(ctx, wid)
	if err != nil {
		return uid, nil, notFound(err, "workout")
	}
	if w.UserID != uid {
		return uid, nil, apperr.NotFound("workout")
	}
	return uid, w, nil
}

func validDifficulty(f domain.Feedback) error {
	if f != "" && !f.Valid() {
		return apperr.Validation("difficulty must be one of easy, just_right, difficult")
	}
	return nil
}

func (s *workoutService) TrackExercise(ctx context.Context, userID, workoutID string, dayIndex, index int, in TrackWorkoutInput) (*domain.WorkoutTracking, error) {
	if err := validDifficulty(in.Difficulty); err != nil {
		return nil, err
	}
	uid, w, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	day, ok := w.Day(dayIndex)
	if !ok {
		return nil, apperr.Validation("day index %d out of range", dayIndex)
	}
	if index < 0 || index >= len(day.Exercises) {
		return nil, apperr.Validation("exercise index %d out of range", index)
	}
	return s.tracking.Upsert(ctx, &domain.WorkoutTracking{
		WorkoutID:  w.ID,
		UserID:     uid,
		Unit:       domain.UnitExercise,
		DayIndex:   dayIndex,
		Index:      index,
		Completed:  in.Completed,
		Difficulty: in.Difficulty,
		UpdatedAt:  s.now().UTC(),
	})
}

func (s *workoutService) TrackDay(ctx context.Context, userID, workoutID string, dayIndex int, in TrackWorkoutInput) (*domain.WorkoutTracking, error) {
	if err := validDifficulty(in.Difficulty); err != nil {
		return nil, err
	}
	uid, w, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Day(dayIndex); !ok {
		return nil, apperr.Validation("day index %d out of range", dayIndex)
	}
	return s.tracking.Upsert(ctx, &domain.WorkoutTracking{
		WorkoutID:  w.ID,
		UserID:     uid,
		Unit:       domain.UnitDay,
		DayIndex:   dayIndex,
		Index:      dayIndex,
		Completed:  in.Completed,
		Difficulty: in.Difficulty,
		UpdatedAt:  s.now().UTC(),
	})
}

// Complete records the user's rating of a workout. The rating of a daily
// workout drives the difficulty of the next one.
func (s *workoutService) Complete(ctx context.Context, userID, workoutID string, in CompleteWorkoutInput) (*domain.Workout, error) {
	if !in.Feedback.Valid() {
		return nil, apperr.Validation("feedback must be one of easy, just_right, difficult")
	}
	_, w, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	notes := strings.TrimSpace(in.Notes)
	if err := s.workouts.SetFeedback(ctx, w.ID, in.Feedback, notes, now); err != nil {
		return nil, notFound(err, "workout")
	}
	w.Feedback, w.FeedbackNotes, w.CompletedAt, w.UpdatedAt = in.Feedback, notes, &now, now
	return w, nil
}

func (s *workoutService) History(ctx context.Context, userID string, days int) ([]domain.Workout, error) {
	uid, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		return nil, apperr.Validation("days must be at most 365")
	}
	from := domain.AddDays(s.now(), -(days - 1))
	return s.workouts.ListSince(ctx, uid, from)
}
