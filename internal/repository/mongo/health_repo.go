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

type mongoHealthRepository struct {
	daily     *mongo.Collection
	heartRate *mongo.Collection
	sleep     *mongo.Collection
	water     *mongo.Collection
}

func NewMongoHealthRepository(db *mongo.Database) repository.HealthRepository {
	return &mongoHealthRepository{
		daily:     db.Collection(healthDataCollectionName),
		heartRate: db.Collection(heartRateCollectionName),
		sleep:     db.Collection(sleepCollectionName),
		water:     db.Collection(waterCollectionName),
	}
}

func upsertByUserDate(ctx context.Context, c *mongo.Collection, userID primitive.ObjectID, date time.Time, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	_, err := c.UpdateOne(ctx,
		bson.M{"userId": userID, "date": date},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true))
	return err
}

func (r *mongoHealthRepository) UpsertDaily(ctx context.Context, d *domain.HealthData) error {
	return upsertByUserDate(ctx, r.daily, d.UserID, d.Date, bson.M{
		"steps":          d.Steps,
		"caloriesBurned": d.CaloriesBurned,
		"distanceKm":     d.DistanceKm,
		"activeMinutes":  d.ActiveMinutes,
	})
}

func (r *mongoHealthRepository) ListDaily(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.HealthData, error) {
	out := []domain.HealthData{}
	err := findAll(ctx, r.daily, bson.M{"userId": userID, "date": bson.M{"$gte": from}}, "date", &out)
	return out, err
}

func (r *mongoHealthRepository) InsertHeartRate(ctx context.Context, samples []domain.HeartRateSample) (int, error) {
	inserted := 0
	for _, s := range samples {
		res, err := r.heartRate.UpdateOne(ctx,
			bson.M{"userId": s.UserID, "timestamp": s.Timestamp},
			bson.M{"$setOnInsert": bson.M{"bpm": s.BPM}},
			options.Update().SetUpsert(true))
		if err != nil {
			return inserted, err
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *mongoHealthRepository) ListHeartRate(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.HeartRateSample, error) {
	out := []domain.HeartRateSample{}
	err := findAll(ctx, r.heartRate, bson.M{"userId": userID, "timestamp": bson.M{"$gte": from}}, "timestamp", &out)
	return out, err
}

func (r *mongoHealthRepository) UpsertSleep(ctx context.Context, rec *domain.SleepRecord) error {
	return upsertByUserDate(ctx, r.sleep, rec.UserID, rec.Date, bson.M{"hours": rec.Hours, "quality": rec.Quality})
}

func (r *mongoHealthRepository) ListSleep(ctx context.Context, userID primitive.ObjectID, from time.Time) ([]domain.SleepRecord, error) {
	out := []domain.SleepRecord{}
	err := findAll(ctx, r.sleep, bson.M{"userId": userID, "date": bson.M{"$gte": from}}, "date", &out)
	return out, err
}

func (r *mongoHealthRepository) UpsertWater(ctx context.Context, rec *domain.WaterIntake) error {
	return upsertByUserDate(ctx, r.water, rec.UserID, rec.Date, bson.M{"amountL": rec.AmountL, "goalL": rec.GoalL})
}

func (r *mongoHealthRepository) GetWater(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.WaterIntake, error) {
	var rec domain.WaterIntake
	if err := r.water.FindOne(ctx, bson.M{"userId": userID, "date": date}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func findAll(ctx context.Context, c *mongo.Collection, filter bson.M, sortKey string, out interface{}) error {
	cursor, err := c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func uniqueUserDate() []mongo.IndexModel {
	return []mongo.IndexModel{{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}}
}

func healthDataIndexes() []mongo.IndexModel { return uniqueUserDate() }
func sleepIndexes() []mongo.IndexModel      { return uniqueUserDate() }
func waterIndexes() []mongo.IndexModel      { return uniqueUserDate() }

func heartRateIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetUnique(true),
	}}
}
