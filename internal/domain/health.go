package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultWaterGoalL is the daily water goal when none is set.
const DefaultWaterGoalL = 3.0

// HealthData is the daily activity summary for one user and date.
type HealthData struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Date           time.Time          `bson:"date" json:"date"`
	Steps          int                `bson:"steps" json:"steps"`
	CaloriesBurned float64            `bson:"caloriesBurned" json:"caloriesBurned"`
	DistanceKm     float64            `bson:"distanceKm" json:"distanceKm"`
	ActiveMinutes  int                `bson:"activeMinutes" json:"activeMinutes"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type HeartRateSample struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	BPM       int                `bson:"bpm" json:"bpm"`
}

type SleepQuality string

const (
	SleepPoor      SleepQuality = "poor"
	SleepFair      SleepQuality = "fair"
	SleepGood      SleepQuality = "good"
	SleepExcellent SleepQuality = "excellent"
)

type SleepRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Date      time.Time          `bson:"date" json:"date"`
	Hours     float64            `bson:"hours" json:"hours"`
	Quality   SleepQuality       `bson:"quality" json:"quality"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type WaterIntake struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Date      time.Time          `bson:"date" json:"date"`
	AmountL   float64            `bson:"amountL" json:"amountL"`
	GoalL     float64            `bson:"goalL" json:"goalL"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
