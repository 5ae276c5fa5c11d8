package showcase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const (
	maxLimit           = 100
	trendingPerGroup   = 4
	defaultLimit       = 20
	defaultArrivalSpan = 30 * 24 * time.Hour
)

// Options holds derived view defaults
type Options struct {
	DefaultLimit     int
	NewArrivalWindow time.Duration
	TopRatedMin      float64
}

// Service answers derived views by querying every item source, merging the
// results, re-sorting them with the view's ordering and truncating to the limit.
type Service struct {
	sources     []domain.ItemSource
	products    domain.ItemSource
	collections domain.CollectionRepository
	opts        Options
	logger      *logger.Logger
	now         func() time.Time
}

// NewService creates a showcase service. products answers the per-collection
// trending view and should also be one of sources.
func NewService(
	sources []domain.ItemSource,
	products domain.ItemSource,
	collections domain.CollectionRepository,
	opts Options,
	log *logger.Logger,
) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.NewArrivalWindow <= 0 {
		opts.NewArrivalWindow = defaultArrivalSpan
	}
	return &Service{
		sources:     sources,
		products:    products,
		collections: collections,
		opts:        opts,
		logger:      log,
		now:         time.Now,
	}
}

// BestSellers returns items with sales, most sold first
func (s *Service) BestSellers(ctx context.Context, limit int) ([]domain.ShowcaseEntry, error) {
	return s.view(ctx, domain.ShowcaseQuery{Kind: domain.ShowcaseBestSellers, Limit: limit})
}

// TopRated returns reviewed items rated at least minRating (the configured minimum when zero)
func (s *Service) TopRated(ctx context.Context, limit int, minRating float64) ([]domain.ShowcaseEntry, error) {
	if minRating < 0 || minRating > 5 {
		return nil, domain.Invalidf("min_rating must be between 0 and 5")
	}
	if minRating == 0 {
		minRating = s.opts.TopRatedMin
	}
	return s.view(ctx, domain.ShowcaseQuery{Kind: domain.ShowcaseTopRated, Limit: limit, MinRating: minRating})
}

// Trending returns trending items. Each source applies its own trending signal.
func (s *Service) Trending(ctx context.Context, limit int) ([]domain.ShowcaseEntry, error) {
	return s.view(ctx, domain.ShowcaseQuery{Kind: domain.ShowcaseTrending, Limit: limit})
}

// NewArrivals returns items created within the arrival window, newest first
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]domain.ShowcaseEntry, error) {
	return s.view(ctx, domain.ShowcaseQuery{
		Kind:  domain.ShowcaseNewArrivals,
		Limit: limit,
		Since: s.now().Add(-s.opts.NewArrivalWindow),
	})
}

// FeaturedBrands returns featured items, newest first
func (s *Service) FeaturedBrands(ctx context.Context, limit int) ([]domain.ShowcaseEntry, error) {
	return s.view(ctx, domain.ShowcaseQuery{Kind: domain.ShowcaseFeatured, Limit: limit})
}

// ByBrand returns the items of one brand, newest first
func (s *Service) ByBrand(ctx context.Context, brand string, limit int) ([]domain.ShowcaseEntry, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, domain.Invalidf("brand is required")
	}
	return s.view(ctx, domain.ShowcaseQuery{Kind: domain.ShowcaseBrand, Limit: limit, Brand: brand})
}

// TrendingByCollection groups up to four trending products per collection.
// Collections without trending products are left out.
func (s *Service) TrendingByCollection(ctx context.Context) ([]domain.CollectionTrending, error) {
	collections, err := s.collections.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list collections", err)
		return nil, err
	}

	result := []domain.CollectionTrending{}
	for _, c := range collections {
		id := c.ID
		items, err := s.products.Showcase(ctx, domain.ShowcaseQuery{
			Kind:         domain.ShowcaseTrending,
			Limit:        trendingPerGroup,
			CollectionID: &id,
		})
		if err != nil {
			s.logger.Errorf(err, "Failed to load trending products for collection %s", id)
			return nil, err
		}

		products := make([]*domain.Product, 0, len(items))
		for _, item := range items {
			if p, ok := item.(*domain.Product); ok {
				products = append(products, p)
			}
		}
		if len(products) == 0 {
			continue
		}
		result = append(result, domain.CollectionTrending{Collection: c, Products: products})
	}

	return result, nil
}

func (s *Service) view(ctx context.Context, q domain.ShowcaseQuery) ([]domain.ShowcaseEntry, error) {
	q.Limit = s.clamp(q.Limit)

	var merged []domain.SellableItem
	for _, src := range s.sources {
		items, err := src.Showcase(ctx, q)
		if err != nil {
			s.logger.Errorf(err, "Failed to query %s showcase", q.Kind)
			return nil, err
		}
		merged = append(merged, items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return less(q.Kind, merged[i].Summary(), merged[j].Summary())
	})
	if len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}

	entries := make([]domain.ShowcaseEntry, len(merged))
	for i, item := range merged {
		entries[i] = domain.ShowcaseEntry{Kind: item.Kind(), Item: item}
	}

	s.logger.Debugf("Showcase %s returned %d items", q.Kind, len(entries))
	return entries, nil
}

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// less mirrors the per-view ordering the stores apply, so merged results keep it
func less(kind domain.ShowcaseKind, a, b domain.ItemSummary) bool {
	switch kind {
	case domain.ShowcaseBestSellers:
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
	case domain.ShowcaseTopRated:
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
	case domain.ShowcaseTrending:
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID.String() < b.ID.String()
}
