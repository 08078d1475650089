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

type mongoMealTrackingRepository struct {
	collection *mongo.Collection
}

func NewMongoMealTrackingRepository(db *mongo.Database) repository.MealTrackingRepository {
	return &mongoMealTrackingRepository{collection: db.Collection(mealTrackingCollectionName)}
}

// Append inserts a new tracking event. Earlier events are never modified.
func (r *mongoMealTrackingRepository) Append(ctx context.Context, rec *domain.MealItemTracking) error {
	rec.ID = primitive.NewObjectID()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *mongoMealTrackingRepository) ListByItems(ctx context.Context, userID primitive.ObjectID, itemIDs []primitive.ObjectID) ([]domain.MealItemTracking, error) {
	records := []domain.MealItemTracking{}
	if len(itemIDs) == 0 {
		return records, nil
	}
	filter := bson.M{"userId": userID, "itemId": bson.M{"$in": itemIDs}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func mealTrackingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "itemId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "mealDate", Value: 1}}},
	}
}
