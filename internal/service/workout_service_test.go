package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/feedback"
	"fitwell/backend/internal/lock"
	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/planner"
)

type workoutFixture struct {
	svc      WorkoutService
	user     *domain.User
	workouts *fakeWorkouts
	tracking *fakeWorkoutTracking
	now      time.Time
}

func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	f := &workoutFixture{
		user:     completeUser(),
		workouts: &fakeWorkouts{},
		tracking: newFakeWorkoutTracking(),
		now:      testNow,
	}
	f.svc = NewWorkoutService(WorkoutDeps{
		Users:      newFakeUsers(f.user),
		Workouts:   f.workouts,
		Tracking:   f.tracking,
		UnitOfWork: &fakeUnitOfWork{},
		Generator:  planner.NewResilient(nil, logger.Nop()),
		Locker:     lock.NewLocalLocker(time.Second),
		Log:        logger.Nop(),
		Settings:   PlanSettings{DefaultDays: 7, MaxDays: 14},
		Now:        func() time.Time { return f.now },
	})
	return f
}

func (f *workoutFixture) uid() string { return f.user.ID.Hex() }

func (f *workoutFixture) nextDay() { f.now = f.now.Add(24 * time.Hour) }

func TestDailyWorkoutProgression(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()

	day1, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	assert.True(t, day1.Created)
	assert.Equal(t, feedback.StateNoHistory, day1.FeedbackState)
	assert.Equal(t, 1, day1.Workout.DayNumber)
	assert.Equal(t, 1.0, day1.Workout.TargetDifficulty)
	assert.Len(t, day1.Workout.Content.Days, 1)
	assert.Equal(t, domain.WorkoutContentSchemaVersion, day1.Workout.Content.SchemaVersion)

	again, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, day1.Workout.ID, again.Workout.ID)

	_, err = f.svc.Complete(ctx, f.uid(), day1.Workout.ID.Hex(), CompleteWorkoutInput{Feedback: domain.FeedbackEasy})
	require.NoError(t, err)

	f.nextDay()
	day2, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, day2.Workout.DayNumber)
	assert.Equal(t, feedback.StateEasy, day2.FeedbackState)
	assert.InDelta(t, 1.15, day2.Workout.TargetDifficulty, 1e-9)
	assert.Equal(t, domain.IntensityModerate, day2.Workout.Intensity)

	_, err = f.svc.Complete(ctx, f.uid(), day2.Workout.ID.Hex(), CompleteWorkoutInput{Feedback: domain.FeedbackDifficult, Notes: "legs sore"})
	require.NoError(t, err)

	f.nextDay()
	day3, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, day3.Workout.DayNumber)
	assert.InDelta(t, 1.15*0.85, day3.Workout.TargetDifficulty, 1e-9)

	// Day 3 is never rated, so day 4 keeps its difficulty.
	f.nextDay()
	day4, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	assert.Equal(t, feedback.StateUnrated, day4.FeedbackState)
	assert.InDelta(t, day3.Workout.TargetDifficulty, day4.Workout.TargetDifficulty, 1e-9)
}

func TestDeclaredFitnessLevelSetsBaseline(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	require.Equal(t, domain.LevelBeginner, f.user.Profile.FitnessLevel)

	_, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{FitnessLevel: "elite"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	daily, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{FitnessLevel: domain.LevelAdvanced})
	require.NoError(t, err)
	assert.Equal(t, feedback.StateNoHistory, daily.FeedbackState)
	assert.Equal(t, 1.5, daily.Workout.TargetDifficulty)
	assert.Equal(t, domain.IntensityHigh, daily.Workout.Intensity)
	assert.Equal(t, domain.LevelAdvanced, daily.Workout.FitnessLevel)

	program, err := f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 3, FitnessLevel: domain.LevelIntermediate})
	require.NoError(t, err)
	assert.Equal(t, 1.25, program.TargetDifficulty)
	assert.Equal(t, domain.LevelIntermediate, program.FitnessLevel)

	// Without a declared level the profile decides.
	f.user.Profile.FitnessLevel = ""
	f.nextDay()
	next, err := f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 1, ForceNew: true})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelBeginner, next.FitnessLevel)
	assert.Equal(t, 1.0, next.TargetDifficulty)
}

func TestGetDailyWorkout(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetDaily(ctx, f.uid(), testNow)
	assert.ErrorIs(t, err, apperr.ErrNoActivePlan)

	gen, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{WorkoutType: "strength"})
	require.NoError(t, err)
	assert.Equal(t, "strength", gen.Workout.WorkoutType)
	_, err = f.svc.TrackExercise(ctx, f.uid(), gen.Workout.ID.Hex(), 0, 0, TrackWorkoutInput{Completed: true})
	require.NoError(t, err)

	detail, err := f.svc.GetDaily(ctx, f.uid(), testNow)
	require.NoError(t, err)
	assert.Equal(t, gen.Workout.ID, detail.Workout.ID)
	assert.Len(t, detail.Tracking, 1)
}

func TestTrackExerciseIsIdempotent(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	gen, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	wid := gen.Workout.ID.Hex()

	first, err := f.svc.TrackExercise(ctx, f.uid(), wid, 0, 1, TrackWorkoutInput{Completed: true})
	require.NoError(t, err)
	second, err := f.svc.TrackExercise(ctx, f.uid(), wid, 0, 1, TrackWorkoutInput{Completed: true, Difficulty: domain.FeedbackJustRight})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.FeedbackJustRight, second.Difficulty)
	rows, _ := f.tracking.ListByWorkout(ctx, gen.Workout.ID)
	assert.Len(t, rows, 1)

	day, err := f.svc.TrackDay(ctx, f.uid(), wid, 0, TrackWorkoutInput{Completed: true})
	require.NoError(t, err)
	assert.Equal(t, domain.UnitDay, day.Unit)
	rows, _ = f.tracking.ListByWorkout(ctx, gen.Workout.ID)
	assert.Len(t, rows, 2)
}

func TestTrackWorkoutValidation(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	gen, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)
	wid := gen.Workout.ID.Hex()
	exercises := len(gen.Workout.Content.Days[0].Exercises)

	_, err = f.svc.TrackExercise(ctx, f.uid(), wid, 0, exercises, TrackWorkoutInput{Completed: true})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.TrackExercise(ctx, f.uid(), wid, 1, 0, TrackWorkoutInput{Completed: true})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.TrackDay(ctx, f.uid(), wid, 1, TrackWorkoutInput{Completed: true})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.TrackExercise(ctx, f.uid(), wid, 0, 0, TrackWorkoutInput{Difficulty: "brutal"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.TrackExercise(ctx, primitive.NewObjectID().Hex(), wid, 0, 0, TrackWorkoutInput{Completed: true})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.TrackExercise(ctx, f.uid(), primitive.NewObjectID().Hex(), 0, 0, TrackWorkoutInput{Completed: true})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompleteWorkout(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	gen, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.uid(), gen.Workout.ID.Hex(), CompleteWorkoutInput{Feedback: "meh"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	w, err := f.svc.Complete(ctx, f.uid(), gen.Workout.ID.Hex(), CompleteWorkoutInput{Feedback: domain.FeedbackJustRight, Notes: "  good  "})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackJustRight, w.Feedback)
	assert.Equal(t, "good", w.FeedbackNotes)
	require.NotNil(t, w.CompletedAt)
	assert.Equal(t, testNow, *w.CompletedAt)
}

func TestGenerateProgram(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()

	w, err := f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkoutProgram, w.Kind)
	assert.Len(t, w.Content.Days, 5)
	assert.Equal(t, domain.AddDays(testNow, 4), w.EndDate)
	assert.Equal(t, "5-Day Beginner Program", w.Name)

	_, err = f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 3})
	require.ErrorIs(t, err, apperr.ErrActivePlanConflict)
	e, _ := apperr.As(err)
	assert.Equal(t, int64(1), e.Details["active_units"])

	replaced, err := f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 3, ForceNew: true})
	require.NoError(t, err)
	n, _ := f.workouts.CountProgramsEndingFrom(ctx, f.user.ID, domain.DateOnly(testNow))
	assert.Equal(t, int64(1), n)

	// Exercises of later program days can be tracked too.
	_, err = f.svc.TrackExercise(ctx, f.uid(), replaced.ID.Hex(), 2, 0, TrackWorkoutInput{Completed: true})
	assert.NoError(t, err)
}

func TestProgramEndsBeforeTodayIsNotActive(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	_, err := f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 2})
	require.NoError(t, err)

	f.nextDay()
	f.nextDay()
	_, err = f.svc.GenerateProgram(ctx, f.uid(), GenerateProgramInput{Days: 2})
	assert.NoError(t, err)
}

func TestWorkoutHistory(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.GenerateDaily(ctx, f.uid(), GenerateDailyInput{})
		require.NoError(t, err)
		f.nextDay()
	}

	all, err := f.svc.History(ctx, f.uid(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := f.svc.History(ctx, f.uid(), 2)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = f.svc.History(ctx, f.uid(), 1000)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
