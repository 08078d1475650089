package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/repository"
)

type mongoWorkoutTrackingRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutTrackingRepository(db *mongo.Database) repository.WorkoutTrackingRepository {
	return &mongoWorkoutTrackingRepository{collection: db.Collection(workoutTrackingCollectionName)}
}

// Upsert writes the current state for one unit and returns the stored row.
// Retries with the same key converge on a single document.
func (r *mongoWorkoutTrackingRepository) Upsert(ctx context.Context, rec *domain.WorkoutTracking) (*domain.WorkoutTracking, error) {
	filter := bson.M{
		"workoutId": rec.WorkoutID,
		"unit":      rec.Unit,
		"dayIndex":  rec.DayIndex,
		"index":     rec.Index,
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set := bson.M{
		"userId":    rec.UserID,
		"completed": rec.Completed,
		"updatedAt": updatedAt,
	}
	if rec.Difficulty != "" {
		set["difficulty"] = rec.Difficulty
	}
	update := bson.M{"$set": set}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.WorkoutTracking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost an upsert race; the document now exists so a plain retry updates it.
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *mongoWorkoutTrackingRepository) ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutTracking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dayIndex", Value: 1}, {Key: "unit", Value: 1}, {Key: "index", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workoutId": workoutID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []domain.WorkoutTracking{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func workoutTrackingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "workoutId", Value: 1},
				{Key: "unit", Value: 1},
				{Key: "dayIndex", Value: 1},
				{Key: "index", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
}
