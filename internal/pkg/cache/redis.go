package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/dial"
)

// NewRedisClient creates a Redis client and pings it
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// WaitForRedis keeps dialing Redis until it answers or maxRetries attempts have failed
func WaitForRedis(cfg *config.Config, maxRetries int, retryDelay time.Duration) (*redis.Client, error) {
	conn, err := dial.Retry(context.Background(), maxRetries, retryDelay, func(context.Context) (*redis.Client, error) {
		return NewRedisClient(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis after %d retries: %w", maxRetries, err)
	}
	return conn, nil
}
