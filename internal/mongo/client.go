package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"car-listing-service/internal/logging"
)

// NewMongoClient connects to uri and pings the primary.
func NewMongoClient(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logging.Info().Msg("connected to MongoDB")
	return client, nil
}

// Indexes lists the indexes the repositories rely on, per collection.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"views": {
			{Keys: bson.D{{Key: "car", Value: 1}, {Key: "ip", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		"favorites": {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "car", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "car", Value: 1}}},
		},
		"reviews": {
			{Keys: bson.D{{Key: "car", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"cars": {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
		},
	}
}

// EnsureIndexes creates every index from Indexes. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range Indexes() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo indexes on %s: %w", coll, err)
		}
	}
	return nil
}
