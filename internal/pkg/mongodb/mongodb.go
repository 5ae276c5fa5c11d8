package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/dial"
)

// NewClient connects to MongoDB and verifies the primary is reachable
func NewClient(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(cfg.Mongo.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// WaitForMongo keeps dialing MongoDB until it answers or maxRetries attempts have failed
func WaitForMongo(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*mongo.Client, error) {
	conn, err := dial.Retry(context.Background(), maxRetries, retryDelay, func(context.Context) (*mongo.Client, error) {
		return NewClient(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB after %d retries: %w", maxRetries, err)
	}
	return conn, nil
}
