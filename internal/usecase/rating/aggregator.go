package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/metrics"
)

// ReviewSource provides the approved-review aggregates ratings are computed from
type ReviewSource interface {
	RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error)
	ReviewedProductIDs(ctx context.Context) ([]uuid.UUID, error)
}

// HierarchyInvalidator drops cached category trees, which embed item ratings
type HierarchyInvalidator interface {
	InvalidateHierarchy(ctx context.Context) error
}

// Aggregator recomputes denormalized item ratings from approved reviews
type Aggregator struct {
	reviews ReviewSource
	cache   HierarchyInvalidator
	stores  []domain.RatingWriter
	logger  *logger.Logger
}

// NewAggregator creates an aggregator that tries stores in the given order
func NewAggregator(reviews ReviewSource, cache HierarchyInvalidator, log *logger.Logger, stores ...domain.RatingWriter) *Aggregator {
	return &Aggregator{
		reviews: reviews,
		cache:   cache,
		stores:  stores,
		logger:  log,
	}
}

// Refresh recomputes the rating of itemID and writes it to the first store that
// owns the id. It returns domain.ErrNotFound when no store knows the item.
func (a *Aggregator) Refresh(ctx context.Context, itemID uuid.UUID) (domain.RatingStats, error) {
	stats, err := a.store(ctx, itemID)
	if err == nil {
		a.invalidateHierarchy(ctx)
	}
	return stats, err
}

func (a *Aggregator) store(ctx context.Context, itemID uuid.UUID) (domain.RatingStats, error) {
	counts, err := a.reviews.RatingCounts(ctx, itemID)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	stats := domain.NewRatingStats(counts)

	for _, store := range a.stores {
		err := store.UpdateRating(ctx, itemID, stats.AverageRating, stats.TotalReviews)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return stats, fmt.Errorf("failed to store rating: %w", err)
		}
	}

	return stats, domain.ErrNotFound
}

// Recompute is the best-effort form of Refresh used after review mutations.
// Failures are logged and reported through the returned status, never as an error.
func (a *Aggregator) Recompute(ctx context.Context, itemID uuid.UUID) domain.RefreshStatus {
	stats, err := a.Refresh(ctx, itemID)
	return a.report(itemID, stats, err)
}

func (a *Aggregator) report(itemID uuid.UUID, stats domain.RatingStats, err error) domain.RefreshStatus {
	status := domain.RefreshOK
	switch {
	case err == nil:
		a.logger.WithFields(map[string]interface{}{
			"item_id":      itemID,
			"rating":       stats.AverageRating,
			"review_count": stats.TotalReviews,
		}).Debug("Item rating recomputed")
	case errors.Is(err, domain.ErrNotFound):
		status = domain.RefreshItemNotFound
		a.logger.Warnf("Rating not stored, item %s not found in any store", itemID)
	default:
		status = domain.RefreshFailed
		a.logger.Errorf(err, "Failed to recompute rating for item %s", itemID)
	}

	metrics.RecordRatingRecompute(string(status))
	return status
}

// RecomputeAll refreshes every item that has at least one review and returns
// how many were stored successfully
func (a *Aggregator) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := a.reviews.ReviewedProductIDs(ctx)
	if err != nil {
		a.logger.Error("Failed to list reviewed items", err)
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		stats, err := a.store(ctx, id)
		if a.report(id, stats, err) == domain.RefreshOK {
			updated++
		}
	}

	// one invalidation covers the whole pass
	if updated > 0 {
		a.invalidateHierarchy(ctx)
	}

	a.logger.WithFields(map[string]interface{}{
		"items":   len(ids),
		"updated": updated,
	}).Info("Ratings reconciled")

	return updated, nil
}

func (a *Aggregator) invalidateHierarchy(ctx context.Context) {
	if err := a.cache.InvalidateHierarchy(ctx); err != nil {
		a.logger.Warnf("Failed to invalidate hierarchy cache: %v", err)
	}
}
