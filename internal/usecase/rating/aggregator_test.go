package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

// MockReviewSource is a mock implementation of ReviewSource
type MockReviewSource struct {
	mock.Mock
}

func (m *MockReviewSource) RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *MockReviewSource) ReviewedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockRatingWriter is a mock implementation of domain.RatingWriter
type MockRatingWriter struct {
	mock.Mock
}

func (m *MockRatingWriter) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	args := m.Called(ctx, id, rating, reviewCount)
	return args.Error(0)
}

// MockInvalidator is a mock implementation of HierarchyInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateHierarchy(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newAggregator() (*Aggregator, *MockReviewSource, *MockRatingWriter, *MockRatingWriter) {
	cache := new(MockInvalidator)
	cache.On("InvalidateHierarchy", mock.Anything).Return(nil).Maybe()
	return newAggregatorWithCache(cache)
}

func newAggregatorWithCache(cache *MockInvalidator) (*Aggregator, *MockReviewSource, *MockRatingWriter, *MockRatingWriter) {
	reviews := new(MockReviewSource)
	catalog := new(MockRatingWriter)
	products := new(MockRatingWriter)
	return NewAggregator(reviews, cache, logger.New("test"), catalog, products), reviews, catalog, products
}

func TestAggregator_Recompute_PrimaryStore(t *testing.T) {
	agg, reviews, catalog, products := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{5: 3, 4: 1, 3: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 4.4, 5).Return(nil)

	before := testutil.ToFloat64(metrics.RatingRecomputes.WithLabelValues("ok"))
	status := agg.Recompute(context.Background(), id)

	assert.Equal(t, domain.RefreshOK, status)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RatingRecomputes.WithLabelValues("ok")))
	products.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_Recompute_FallsBackToProducts(t *testing.T) {
	agg, reviews, catalog, products := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{4: 2}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 4.0, 2).Return(domain.ErrNotFound)
	products.On("UpdateRating", mock.Anything, id, 4.0, 2).Return(nil)

	status := agg.Recompute(context.Background(), id)

	assert.Equal(t, domain.RefreshOK, status)
	products.AssertExpectations(t)
}

func TestAggregator_Recompute_NoApprovedReviewsResetsRating(t *testing.T) {
	agg, reviews, catalog, _ := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 0.0, 0).Return(nil)

	assert.Equal(t, domain.RefreshOK, agg.Recompute(context.Background(), id))
	catalog.AssertExpectations(t)
}

func TestAggregator_Recompute_ItemNotFound(t *testing.T) {
	agg, reviews, catalog, products := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{5: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 5.0, 1).Return(domain.ErrNotFound)
	products.On("UpdateRating", mock.Anything, id, 5.0, 1).Return(domain.ErrNotFound)

	assert.Equal(t, domain.RefreshItemNotFound, agg.Recompute(context.Background(), id))
}

func TestAggregator_Recompute_SwallowsStoreFailure(t *testing.T) {
	agg, reviews, catalog, products := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{5: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 5.0, 1).Return(errors.New("connection reset"))

	assert.Equal(t, domain.RefreshFailed, agg.Recompute(context.Background(), id))
	products.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_Refresh_AggregationError(t *testing.T) {
	agg, reviews, catalog, _ := newAggregator()
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(nil, errors.New("mongo down"))

	_, err := agg.Refresh(context.Background(), id)

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	catalog.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_RecomputeAll(t *testing.T) {
	agg, reviews, catalog, products := newAggregator()
	first, second := uuid.New(), uuid.New()

	reviews.On("ReviewedProductIDs", mock.Anything).Return([]uuid.UUID{first, second}, nil)
	reviews.On("RatingCounts", mock.Anything, first).Return(map[int]int{5: 1}, nil)
	reviews.On("RatingCounts", mock.Anything, second).Return(map[int]int{1: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, first, 5.0, 1).Return(nil)
	catalog.On("UpdateRating", mock.Anything, second, 1.0, 1).Return(domain.ErrNotFound)
	products.On("UpdateRating", mock.Anything, second, 1.0, 1).Return(domain.ErrNotFound)

	updated, err := agg.RecomputeAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestAggregator_Refresh_DropsCachedHierarchy(t *testing.T) {
	cache := new(MockInvalidator)
	agg, reviews, catalog, _ := newAggregatorWithCache(cache)
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{4: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 4.0, 1).Return(nil)
	cache.On("InvalidateHierarchy", mock.Anything).Return(errors.New("redis down")).Once()

	assert.Equal(t, domain.RefreshOK, agg.Recompute(context.Background(), id))
	cache.AssertExpectations(t)
}

func TestAggregator_Refresh_KeepsHierarchyWhenNothingStored(t *testing.T) {
	cache := new(MockInvalidator)
	agg, reviews, catalog, products := newAggregatorWithCache(cache)
	id := uuid.New()

	reviews.On("RatingCounts", mock.Anything, id).Return(map[int]int{5: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, id, 5.0, 1).Return(domain.ErrNotFound)
	products.On("UpdateRating", mock.Anything, id, 5.0, 1).Return(domain.ErrNotFound)

	assert.Equal(t, domain.RefreshItemNotFound, agg.Recompute(context.Background(), id))
	cache.AssertNotCalled(t, "InvalidateHierarchy", mock.Anything)
}

func TestAggregator_RecomputeAll_InvalidatesOnce(t *testing.T) {
	cache := new(MockInvalidator)
	agg, reviews, catalog, _ := newAggregatorWithCache(cache)
	first, second := uuid.New(), uuid.New()

	reviews.On("ReviewedProductIDs", mock.Anything).Return([]uuid.UUID{first, second}, nil)
	reviews.On("RatingCounts", mock.Anything, mock.Anything).Return(map[int]int{3: 1}, nil)
	catalog.On("UpdateRating", mock.Anything, mock.Anything, 3.0, 1).Return(nil)
	cache.On("InvalidateHierarchy", mock.Anything).Return(nil).Once()

	updated, err := agg.RecomputeAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	cache.AssertNumberOfCalls(t, "InvalidateHierarchy", 1)
}
