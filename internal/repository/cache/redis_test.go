package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisCache(client, TTLs{
		ReviewsList: time.Minute,
		ReviewStats: time.Minute,
		Hierarchy:   time.Minute,
	}), mr
}

func TestRedisCache_ReviewPage_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	productID := uuid.New()
	key := PageKey{Status: domain.ReviewApproved, SortBy: "created_at", SortOrder: "desc", Limit: 10}

	_, err := c.GetReviewPage(ctx, productID, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page := &ReviewPage{Reviews: []*domain.Review{{ID: uuid.New(), ProductID: productID, Rating: 5}}, Total: 7}
	require.NoError(t, c.SetReviewPage(ctx, productID, key, page))

	got, err := c.GetReviewPage(ctx, productID, key)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Total)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, 5, got.Reviews[0].Rating)
}

func TestRedisCache_InvalidateProduct(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	productID := uuid.New()
	other := uuid.New()

	first := PageKey{Status: domain.ReviewApproved, Limit: 10}
	second := PageKey{Status: domain.ReviewApproved, Limit: 10, Offset: 10}
	require.NoError(t, c.SetReviewPage(ctx, productID, first, &ReviewPage{Total: 1}))
	require.NoError(t, c.SetReviewPage(ctx, productID, second, &ReviewPage{Total: 1}))
	require.NoError(t, c.SetReviewStats(ctx, productID, &domain.RatingStats{TotalReviews: 1}))
	require.NoError(t, c.SetReviewStats(ctx, other, &domain.RatingStats{TotalReviews: 2}))

	require.NoError(t, c.InvalidateProduct(ctx, productID))

	_, err := c.GetReviewPage(ctx, productID, first)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.GetReviewPage(ctx, productID, second)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.GetReviewStats(ctx, productID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists(trackingKey(productID)))

	stats, err := c.GetReviewStats(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReviews)
}

func TestRedisCache_InvalidateProduct_NothingCached(t *testing.T) {
	c, _ := newTestCache(t)

	assert.NoError(t, c.InvalidateProduct(context.Background(), uuid.New()))
}

func TestRedisCache_Hierarchy(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	nodes := []*domain.CategoryNode{{
		Category: domain.Category{ID: uuid.New(), Name: "Jewelry", Level: domain.LevelTop},
		Children: []*domain.CategoryNode{},
	}}
	require.NoError(t, c.SetHierarchy(ctx, false, nodes))
	require.NoError(t, c.SetHierarchy(ctx, true, nodes))

	got, err := c.GetHierarchy(ctx, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jewelry", got[0].Name)

	ttl := mr.TTL(hierarchyKey)
	assert.Equal(t, time.Minute, ttl)

	require.NoError(t, c.InvalidateHierarchy(ctx))
	_, err = c.GetHierarchy(ctx, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
