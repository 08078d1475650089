package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitwell/backend/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UnitOfWork runs fn inside a transaction. Repository calls made with the
// context passed to fn join the transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.Profile) error
}

// MealPlanRepository stores generated meals. Dates are UTC midnights; "from"
// bounds are inclusive and "to" bounds exclusive.
type MealPlanRepository interface {
	CountFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error)
	DeleteFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error)
	InsertMany(ctx context.Context, meals []domain.Meal) error
	ListRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Meal, error)
	ListFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Meal, error)
	GetByItemID(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.Meal, error)
	SetItemImage(ctx context.Context, mealID, itemID primitive.ObjectID, imageKey string) error
}

// MealTrackingRepository stores append-only meal item tracking events.
type MealTrackingRepository interface {
	Append(ctx context.Context, rec *domain.MealItemTracking) error
	ListByItems(ctx context.Context, userID primitive.ObjectID, itemIDs []primitive.ObjectID) ([]domain.MealItemTracking, error)
}

type WorkoutRepository interface {
	// Create fails with ErrDuplicate when a daily workout already exists for
	// the user and date.
	Create(ctx context.Context, workout *domain.Workout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetDaily(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error)
	LatestDailyBefore(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error)
	CountProgramsEndingFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error)
	DeleteProgramsEndingFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error)
	ListSince(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Workout, error)
	SetFeedback(ctx context.Context, id primitive.ObjectID, feedback domain.Feedback, notes string, completedAt time.Time) error
}

// WorkoutTrackingRepository stores per-exercise and per-day completion state.
// Upsert is idempotent on (workoutId, unit, dayIndex, index).
type WorkoutTrackingRepository interface {
	Upsert(ctx context.Context, rec *domain.WorkoutTracking) (*domain.WorkoutTracking, error)
	ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutTracking, error)
}

type HealthRepository interface {
	UpsertDaily(ctx context.Context, data *domain.HealthData) error
	ListDaily(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.HealthData, error)
	// InsertHeartRate skips samples already stored for the same timestamp and
	// returns how many were inserted.
	InsertHeartRate(ctx context.Context, samples []domain.HeartRateSample) (int, error)
	ListHeartRate(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.HeartRateSample, error)
	UpsertSleep(ctx context.Context, rec *domain.SleepRecord) error
	ListSleep(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.SleepRecord, error)
	UpsertWater(ctx context.Context, rec *domain.WaterIntake) error
	GetWater(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.WaterIntake, error)
}
