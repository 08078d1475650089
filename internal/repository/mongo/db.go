package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"fitwell/backend/internal/logger"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

const (
	userCollectionName            = "users"
	mealCollectionName            = "meals"
	mealTrackingCollectionName    = "meal_item_tracking"
	workoutCollectionName         = "workouts"
	workoutTrackingCollectionName = "workout_tracking"
	healthDataCollectionName      = "health_data"
	heartRateCollectionName       = "heart_rate"
	sleepCollectionName           = "sleep"
	waterCollectionName           = "water_intake"
)

// ConnectDB establishes a connection to MongoDB and pings the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// ErrNoTransactions is returned by RequireTransactions for a standalone
// server.
var ErrNoTransactions = errors.New("mongo: transactions need a replica set or sharded cluster")

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// RequireTransactions asks the server for its topology and fails unless it
// is a replica set member or a mongos router.
func RequireTransactions(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var reply helloReply
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if reply.SetName == "" && reply.Msg != "isdbgrid" {
		return ErrNoTransactions
	}
	return nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are logged
// per collection and returned as the first error seen.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	steps := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{userCollectionName, userIndexes()},
		{mealCollectionName, mealIndexes()},
		{mealTrackingCollectionName, mealTrackingIndexes()},
		{workoutCollectionName, workoutIndexes()},
		{workoutTrackingCollectionName, workoutTrackingIndexes()},
		{healthDataCollectionName, healthDataIndexes()},
		{heartRateCollectionName, heartRateIndexes()},
		{sleepCollectionName, sleepIndexes()},
		{waterCollectionName, waterIndexes()},
	}

	var firstErr error
	for _, s := range steps {
		if _, err := db.Collection(s.collection).Indexes().CreateMany(ctx, s.models); err != nil {
			log.Warn("Failed to create indexes", "collection", s.collection, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
