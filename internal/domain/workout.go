package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutContentSchemaVersion is stamped on every stored workout content.
const WorkoutContentSchemaVersion = 1

// WorkoutKind separates the one-day progressive plans from multi-day programs.
// Content shape is chosen by kind, never inferred from the stored document.
type WorkoutKind string

const (
	WorkoutDaily   WorkoutKind = "daily"
	WorkoutProgram WorkoutKind = "program"
)

type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Feedback is the user's rating of a completed workout.
type Feedback string

const (
	FeedbackEasy      Feedback = "easy"
	FeedbackJustRight Feedback = "just_right"
	FeedbackDifficult Feedback = "difficult"
)

func (f Feedback) Valid() bool {
	switch f {
	case FeedbackEasy, FeedbackJustRight, FeedbackDifficult:
		return true
	}
	return false
}

type Exercise struct {
	Index       int     `bson:"index" json:"index"`
	Name        string  `bson:"name" json:"name"`
	Type        string  `bson:"type" json:"type"`
	Sets        int     `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        int     `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationMin int     `bson:"durationMin,omitempty" json:"durationMin,omitempty"`
	Calories    float64 `bson:"calories,omitempty" json:"calories,omitempty"`
}

type TrainingDay struct {
	Index     int        `bson:"index" json:"index"`
	Name      string     `bson:"name" json:"name"`
	Focus     string     `bson:"focus" json:"focus"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

type WorkoutContent struct {
	SchemaVersion int           `bson:"schemaVersion" json:"schemaVersion"`
	Days          []TrainingDay `bson:"days" json:"days"`
}

// Workout is a generated workout plan. Daily plans hold exactly one training
// day and carry a DayNumber; programs span Date..EndDate.
type Workout struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Kind             WorkoutKind        `bson:"kind" json:"kind"`
	Date             time.Time          `bson:"date" json:"date"`
	EndDate          time.Time          `bson:"endDate" json:"endDate"`
	Name             string             `bson:"name" json:"name"`
	WorkoutType      string             `bson:"workoutType" json:"workoutType"`
	Intensity        Intensity          `bson:"intensity" json:"intensity"`
	FitnessLevel     FitnessLevel       `bson:"fitnessLevel" json:"fitnessLevel"`
	Goal             FitnessGoal        `bson:"goal,omitempty" json:"goal,omitempty"`
	DayNumber        int                `bson:"dayNumber,omitempty" json:"dayNumber,omitempty"`
	TargetDifficulty float64            `bson:"targetDifficulty" json:"targetDifficulty"`
	Feedback         Feedback           `bson:"feedback,omitempty" json:"feedback,omitempty"`
	FeedbackNotes    string             `bson:"feedbackNotes,omitempty" json:"feedbackNotes,omitempty"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Content          WorkoutContent     `bson:"content" json:"content"`
	Source           PlanSource         `bson:"source" json:"source"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Day returns the training day at index.
func (w *Workout) Day(index int) (*TrainingDay, bool) {
	if index < 0 || index >= len(w.Content.Days) {
		return nil, false
	}
	return &w.Content.Days[index], true
}

type TrackingUnit string

const (
	UnitExercise TrackingUnit = "exercise"
	UnitDay      TrackingUnit = "day"
)

// WorkoutTracking is the current completion state of one exercise or one
// training day. Writes are upserts keyed by (WorkoutID, Unit, DayIndex, Index).
type WorkoutTracking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Unit       TrackingUnit       `bson:"unit" json:"unit"`
	DayIndex   int                `bson:"dayIndex" json:"dayIndex"`
	Index      int                `bson:"index" json:"index"`
	Completed  bool               `bson:"completed" json:"completed"`
	Difficulty Feedback           `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
