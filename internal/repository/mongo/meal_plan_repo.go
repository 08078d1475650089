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

type mongoMealPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoMealPlanRepository(db *mongo.Database) repository.MealPlanRepository {
	return &mongoMealPlanRepository{collection: db.Collection(mealCollectionName)}
}

func (r *mongoMealPlanRepository) CountFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": from}})
}

func (r *mongoMealPlanRepository) DeleteFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": from}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoMealPlanRepository) InsertMany(ctx context.Context, meals []domain.Meal) error {
	if len(meals) == 0 {
		return nil
	}
	docs := make([]interface{}, len(meals))
	for i := range meals {
		if meals[i].ID.IsZero() {
			meals[i].ID = primitive.NewObjectID()
		}
		docs[i] = meals[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *mongoMealPlanRepository) ListRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Meal, error) {
	return r.find(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": from, "$lt": to}})
}

func (r *mongoMealPlanRepository) ListFrom(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.Meal, error) {
	return r.find(ctx, bson.M{"userId": userID, "date": bson.M{"$gte": from}})
}

func (r *mongoMealPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.Meal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "mealType", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	meals := []domain.Meal{}
	if err := cursor.All(ctx, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (r *mongoMealPlanRepository) GetByItemID(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.Meal, error) {
	var meal domain.Meal
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "items._id": itemID}).Decode(&meal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &meal, nil
}

func (r *mongoMealPlanRepository) SetItemImage(ctx context.Context, mealID, itemID primitive.ObjectID, imageKey string) error {
	filter := bson.M{"_id": mealID, "items._id": itemID}
	update := bson.M{"$set": bson.M{"items.$.imageKey": imageKey}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mealIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}, {Key: "mealType", Value: 1}}},
		{Keys: bson.D{{Key: "items._id", Value: 1}}},
		{Keys: bson.D{{Key: "batchId", Value: 1}}},
	}
}
