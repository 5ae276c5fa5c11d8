package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const testDebounce = 50 * time.Millisecond

// MockRefresher is a mock implementation of Refresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, itemID uuid.UUID) (domain.RatingStats, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(domain.RatingStats), args.Error(1)
}

func setupTestWorker() (*RatingWorker, *MockRefresher) {
	refresher := new(MockRefresher)
	return NewRatingWorker(refresher, testDebounce, logger.New("test")), refresher
}

func eventData(t *testing.T, productID uuid.UUID, at time.Time) []byte {
	data, err := json.Marshal(domain.ReviewEvent{
		EventType: domain.EventReviewCreated,
		ProductID: productID,
		ReviewID:  uuid.New(),
		Timestamp: at,
	})
	require.NoError(t, err)
	return data
}

func TestRatingWorker_HandleEvent_Success(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()

	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{AverageRating: 4.5, TotalReviews: 2}, nil).Once()

	require.NoError(t, worker.HandleEvent(eventData(t, productID, time.Now())))
	assert.Equal(t, 1, worker.PendingCount())

	time.Sleep(testDebounce + 100*time.Millisecond)

	assert.Equal(t, 0, worker.PendingCount())
	refresher.AssertExpectations(t)
}

func TestRatingWorker_HandleEvent_InvalidJSON(t *testing.T) {
	worker, _ := setupTestWorker()

	err := worker.HandleEvent([]byte(`{invalid json}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRatingWorker_HandleEvent_MissingProduct(t *testing.T) {
	worker, _ := setupTestWorker()

	assert.NoError(t, worker.HandleEvent([]byte(`{"event_type":"review.created"}`)))
	assert.Equal(t, 0, worker.PendingCount())
}

func TestRatingWorker_Debouncing_MultipleEvents(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()

	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{}, nil).Once()

	for i := 0; i < 5; i++ {
		require.NoError(t, worker.HandleEvent(eventData(t, productID, time.Now())))
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, worker.PendingCount())

	time.Sleep(testDebounce + 150*time.Millisecond)

	assert.Equal(t, 0, worker.PendingCount())
	refresher.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestRatingWorker_IgnoresStaleEvents(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()
	now := time.Now()

	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{}, nil).Once()

	require.NoError(t, worker.HandleEvent(eventData(t, productID, now.Add(10*time.Second))))
	require.NoError(t, worker.HandleEvent(eventData(t, productID, now)))
	assert.Equal(t, 1, worker.PendingCount())

	time.Sleep(testDebounce + 150*time.Millisecond)

	refresher.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestRatingWorker_MultipleProducts(t *testing.T) {
	worker, refresher := setupTestWorker()
	products := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	for _, id := range products {
		refresher.On("Refresh", mock.Anything, id).Return(domain.RatingStats{}, nil).Once()
		require.NoError(t, worker.HandleEvent(eventData(t, id, time.Now())))
	}
	assert.Equal(t, 3, worker.PendingCount())

	time.Sleep(testDebounce + 200*time.Millisecond)

	assert.Equal(t, 0, worker.PendingCount())
	refresher.AssertExpectations(t)
}

func TestRatingWorker_RetriesTransientFailures(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()

	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{}, assert.AnError).Twice()
	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{TotalReviews: 1}, nil).Once()

	require.NoError(t, worker.HandleEvent(eventData(t, productID, time.Now())))

	// debounce + 100ms + 200ms backoff
	time.Sleep(testDebounce + 600*time.Millisecond)

	refresher.AssertNumberOfCalls(t, "Refresh", 3)
}

func TestRatingWorker_DoesNotRetryUnknownItem(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()

	refresher.On("Refresh", mock.Anything, productID).Return(domain.RatingStats{}, domain.ErrNotFound)

	require.NoError(t, worker.HandleEvent(eventData(t, productID, time.Now())))
	time.Sleep(testDebounce + 300*time.Millisecond)

	refresher.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestRatingWorker_ShutdownCancelsPendingUpdates(t *testing.T) {
	refresher := new(MockRefresher)
	worker := NewRatingWorker(refresher, time.Hour, logger.New("test"))

	require.NoError(t, worker.HandleEvent(eventData(t, uuid.New(), time.Now())))
	assert.Equal(t, 1, worker.PendingCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, worker.Shutdown(ctx))
	assert.Equal(t, 0, worker.PendingCount())
	refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)

	// events after shutdown are ignored
	require.NoError(t, worker.HandleEvent(eventData(t, uuid.New(), time.Now())))
	assert.Equal(t, 0, worker.PendingCount())
}

func TestRatingWorker_ShutdownTimeout(t *testing.T) {
	worker, refresher := setupTestWorker()
	productID := uuid.New()
	release := make(chan struct{})
	defer close(release)

	refresher.On("Refresh", mock.Anything, productID).
		Run(func(mock.Arguments) { <-release }).
		Return(domain.RatingStats{}, nil)

	require.NoError(t, worker.HandleEvent(eventData(t, productID, time.Now())))
	time.Sleep(testDebounce + 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := worker.Shutdown(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}
