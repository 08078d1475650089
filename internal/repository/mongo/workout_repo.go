package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/repository"
)

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{collection: db.Collection(workoutCollectionName)}
}

func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) error {
	if workout.UserID.IsZero() || workout.Kind == "" {
		return errors.New("workout requires userId and kind")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoWorkoutRepository) GetDaily(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "kind": domain.WorkoutDaily, "date": date})
}

// LatestDailyBefore returns the most recent daily workout dated before date.
func (r *mongoWorkoutRepository) LatestDailyBefore(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.Workout, error) {
	filter := bson.M{"userId": userID, "kind": domain.WorkoutDaily, "date": bson.M{"$lt": date}}
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoWorkoutRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.Workout, error) {
	var workout domain.Workout
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&workout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

func (r *mongoWorkoutRepository) CountProgramsEndingFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, r.activeProgramFilter(userID, from))
}

func (r *mongoWorkoutRepository) DeleteProgramsEndingFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, r.activeProgramFilter(userID, from))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoWorkoutRepository) activeProgramFilter(userID primitive.ObjectID, from time.Time) bson.M {
	return bson.M{"userId": userID, "kind": domain.WorkoutProgram, "endDate": bson.M{"$gte": from}}
}

func (r *mongoWorkoutRepository) ListSince(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Workout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": from}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *mongoWorkoutRepository) SetFeedback(ctx context.Context, id primitive.ObjectID, feedback domain.Feedback, notes string, completedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"feedback":      feedback,
		"feedbackNotes": notes,
		"completedAt":   completedAt,
		"updatedAt":     time.Now().UTC(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func workoutIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// One daily plan per user and date.
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": domain.WorkoutDaily}).
				SetName("uniq_daily_per_date"),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "endDate", Value: 1}}},
	}
}
