package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cleanops/backoffice-core/internal/infra/config"
)

// Collection names used across the repositories.
const (
	CollectionAccounts       = "accounts"
	CollectionModerators     = "moderators"
	CollectionWorkers        = "workers"
	CollectionCrews          = "crews"
	CollectionSecurityEvents = "security_events"
)

// NewMongoDatabase connects to MongoDB and verifies the connection.
func NewMongoDatabase(ctx context.Context, cfg config.MongoSettings, log *zap.Logger) (*mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info("connected to mongodb",
		zap.String("database", cfg.Database),
	)

	return client.Database(cfg.Database), nil
}

// EnsureIndexes creates the uniqueness constraints the core's concurrency
// model relies on: duplicate usernames and duplicate crew numbers must be
// rejected at persistence time, not merely checked in application code.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	accountIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "national_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(CollectionAccounts).Indexes().CreateMany(ctx, accountIndexes); err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}

	crewIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "state", Value: 1}, {Key: "sequence", Value: 1}},
		},
	}
	if _, err := db.Collection(CollectionCrews).Indexes().CreateMany(ctx, crewIndexes); err != nil {
		return fmt.Errorf("create crew indexes: %w", err)
	}

	eventIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "occurred_at", Value: 1}},
	}
	if _, err := db.Collection(CollectionSecurityEvents).Indexes().CreateOne(ctx, eventIndex); err != nil {
		return fmt.Errorf("create security event index: %w", err)
	}

	return nil
}
