package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

// MockRatingReconciler is a mock implementation of RatingReconciler
type MockRatingReconciler struct {
	mock.Mock
}

func (m *MockRatingReconciler) RecomputeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockAncestorReindexer is a mock implementation of AncestorReindexer
type MockAncestorReindexer struct {
	mock.Mock
}

func (m *MockAncestorReindexer) ReindexAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestReconciler_RunOnce(t *testing.T) {
	ratings := new(MockRatingReconciler)
	reindex := new(MockAncestorReindexer)
	r := NewReconciler(ratings, reindex, logger.New("test"))

	reindex.On("ReindexAll", mock.Anything).Return(int64(12), nil).Once()
	ratings.On("RecomputeAll", mock.Anything).Return(5, nil).Once()

	assert.NoError(t, r.RunOnce(context.Background()))
	reindex.AssertExpectations(t)
	ratings.AssertExpectations(t)
}

func TestReconciler_RunOnce_ReindexFailureStops(t *testing.T) {
	ratings := new(MockRatingReconciler)
	reindex := new(MockAncestorReindexer)
	r := NewReconciler(ratings, reindex, logger.New("test"))

	reindex.On("ReindexAll", mock.Anything).Return(int64(0), assert.AnError)

	err := r.RunOnce(context.Background())

	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "reindex")
	ratings.AssertNotCalled(t, "RecomputeAll", mock.Anything)
}

func TestReconciler_Start_InvalidSchedule(t *testing.T) {
	r := NewReconciler(new(MockRatingReconciler), new(MockAncestorReindexer), logger.New("test"))

	err := r.Start("every now and then")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconcile schedule")
}

func TestReconciler_StartAndStop(t *testing.T) {
	ratings := new(MockRatingReconciler)
	reindex := new(MockAncestorReindexer)
	r := NewReconciler(ratings, reindex, logger.New("test"))

	reindex.On("ReindexAll", mock.Anything).Return(int64(0), nil).Maybe()
	ratings.On("RecomputeAll", mock.Anything).Return(0, nil).Maybe()

	assert.NoError(t, r.Start("@every 1h"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
