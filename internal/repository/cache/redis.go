package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

const (
	prefixReviews   = "reviews"
	prefixStats     = "stats"
	prefixHierarchy = "hierarchy"

	hierarchyKey          = "categories:hierarchy"
	hierarchyWithItemsKey = "categories:hierarchy:items"
)

// ReviewPage is a cached page of a product's reviews
type ReviewPage struct {
	Reviews []*domain.Review `json:"reviews"`
	Total   int              `json:"total"`
}

// PageKey identifies one cached listing of a product's reviews
type PageKey struct {
	Status    domain.ReviewStatus
	Rating    int
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// TTLs groups the expiry of each cached family
type TTLs struct {
	ReviewsList time.Duration
	ReviewStats time.Duration
	Hierarchy   time.Duration
}

// RedisCache caches review pages, review stats and the category hierarchy
type RedisCache struct {
	client *redis.Client
	ttl    TTLs
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, ttl TTLs) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func reviewsPageKey(productID uuid.UUID, k PageKey) string {
	return fmt.Sprintf("product:%s:reviews:status:%s:rating:%d:sort:%s:%s:limit:%d:offset:%d",
		productID, k.Status, k.Rating, k.SortBy, k.SortOrder, k.Limit, k.Offset)
}

func statsKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:review_stats", productID)
}

func trackingKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:cache_keys", productID)
}

// getJSON loads key into dst, returning domain.ErrNotFound on a miss
func (c *RedisCache) getJSON(ctx context.Context, prefix, key string, dst interface{}) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(prefix)
			return domain.ErrNotFound
		}
		return err
	}

	metrics.RecordCacheHit(prefix)
	return json.Unmarshal(val, dst)
}

// setTracked stores value under key and remembers key in the product's tracking SET
func (c *RedisCache) setTracked(ctx context.Context, productID uuid.UUID, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	tracking := trackingKey(productID)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, tracking, key)
	pipe.Expire(ctx, tracking, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetReviewPage retrieves a cached review page
func (c *RedisCache) GetReviewPage(ctx context.Context, productID uuid.UUID, k PageKey) (*ReviewPage, error) {
	var page ReviewPage
	if err := c.getJSON(ctx, prefixReviews, reviewsPageKey(productID, k), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetReviewPage stores a review page
func (c *RedisCache) SetReviewPage(ctx context.Context, productID uuid.UUID, k PageKey, page *ReviewPage) error {
	return c.setTracked(ctx, productID, reviewsPageKey(productID, k), page, c.ttl.ReviewsList)
}

// GetReviewStats retrieves cached rating stats
func (c *RedisCache) GetReviewStats(ctx context.Context, productID uuid.UUID) (*domain.RatingStats, error) {
	var stats domain.RatingStats
	if err := c.getJSON(ctx, prefixStats, statsKey(productID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetReviewStats stores rating stats
func (c *RedisCache) SetReviewStats(ctx context.Context, productID uuid.UUID, stats *domain.RatingStats) error {
	return c.setTracked(ctx, productID, statsKey(productID), stats, c.ttl.ReviewStats)
}

// InvalidateProduct removes every cached page and the stats of a product
func (c *RedisCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	tracking := trackingKey(productID)

	keys, err := c.client.SMembers(ctx, tracking).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	keys = append(keys, tracking, statsKey(productID))
	return c.client.Unlink(ctx, keys...).Err()
}

func hierarchyCacheKey(withItems bool) string {
	if withItems {
		return hierarchyWithItemsKey
	}
	return hierarchyKey
}

// GetHierarchy retrieves the cached category tree
func (c *RedisCache) GetHierarchy(ctx context.Context, withItems bool) ([]*domain.CategoryNode, error) {
	var nodes []*domain.CategoryNode
	if err := c.getJSON(ctx, prefixHierarchy, hierarchyCacheKey(withItems), &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// SetHierarchy stores the category tree
func (c *RedisCache) SetHierarchy(ctx context.Context, withItems bool, nodes []*domain.CategoryNode) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, hierarchyCacheKey(withItems), data, c.ttl.Hierarchy).Err()
}

// InvalidateHierarchy drops both cached tree variants
func (c *RedisCache) InvalidateHierarchy(ctx context.Context) error {
	return c.client.Unlink(ctx, hierarchyKey, hierarchyWithItemsKey).Err()
}
