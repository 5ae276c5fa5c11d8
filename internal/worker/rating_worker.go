package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

const (
	defaultDebounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	attemptTimeout = 5 * time.Second
)

// Refresher recomputes and stores the rating of one item
type Refresher interface {
	Refresh(ctx context.Context, itemID uuid.UUID) (domain.RatingStats, error)
}

// RatingWorker turns review events into debounced rating refreshes
type RatingWorker struct {
	refresher Refresher
	debounce  time.Duration
	logger    *logger.Logger

	mu             sync.Mutex
	pendingUpdates map[uuid.UUID]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewRatingWorker creates a worker that waits debounce after the last event of an item before refreshing it
func NewRatingWorker(refresher Refresher, debounce time.Duration, log *logger.Logger) *RatingWorker {
	if debounce <= 0 {
		debounce = defaultDebounceWindow
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		refresher:      refresher,
		debounce:       debounce,
		logger:         log,
		pendingUpdates: make(map[uuid.UUID]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent decodes a review event and schedules a refresh of its item
func (w *RatingWorker) HandleEvent(data []byte) error {
	var event domain.ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ProductID == uuid.Nil {
		w.logger.Warnf("Dropping %s event without product id", event.EventType)
		return nil
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID.String(),
		"timestamp":  event.Timestamp,
	}).Debug("Received review event")

	w.scheduleUpdate(event.ProductID, event.Timestamp)
	return nil
}

// scheduleUpdate coalesces events of one item into a single refresh.
// Events older than the pending one are ignored.
func (w *RatingWorker) scheduleUpdate(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[productID]
	if found {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id":  productID.String(),
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// A timer that already fired owns its WaitGroup slot; the new one needs its own
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	update := &pendingUpdate{timestamp: timestamp}
	update.timer = time.AfterFunc(w.debounce, func() {
		w.processUpdate(productID, update)
	})
	w.pendingUpdates[productID] = update
}

// processUpdate refreshes the rating with exponential backoff. Unknown items are not retried.
func (w *RatingWorker) processUpdate(productID uuid.UUID, update *pendingUpdate) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pendingUpdates[productID] == update {
		delete(w.pendingUpdates, productID)
	}
	w.mu.Unlock()

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying rating update")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, attemptTimeout)
		stats, err := w.refresher.Refresh(ctx, productID)
		cancel()

		if err == nil {
			metrics.RecordRatingRecompute(string(domain.RefreshOK))
			w.logger.WithFields(map[string]any{
				"product_id":   productID.String(),
				"rating":       stats.AverageRating,
				"review_count": stats.TotalReviews,
			}).Info("Rating updated")
			return
		}

		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordRatingRecompute(string(domain.RefreshItemNotFound))
			w.logger.Warnf("Item %s not found in any store, skipping rating update", productID)
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"product_id": productID.String(),
			"attempt":    attempt + 1,
		}).Error("Failed to update rating", err)
	}

	metrics.RecordRatingRecompute(string(domain.RefreshFailed))
	w.logger.WithFields(map[string]any{
		"product_id":  productID.String(),
		"max_retries": maxRetries,
	}).Error("Rating update failed after all retries", lastErr)
}

// Shutdown cancels pending timers and waits for in-flight refreshes or ctx
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down rating worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for _, update := range w.pendingUpdates {
		if update.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
	}
	w.pendingUpdates = make(map[uuid.UUID]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": cancelled,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of scheduled refreshes
func (w *RatingWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}
