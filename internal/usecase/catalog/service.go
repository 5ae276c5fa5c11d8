package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/validator"
)

// AncestorResolver finds the mid/top categories of a leaf category
type AncestorResolver interface {
	ResolveAncestors(ctx context.Context, leafID uuid.UUID) (domain.Ancestors, error)
}

// HierarchyInvalidator drops cached category trees that embed items
type HierarchyInvalidator interface {
	InvalidateHierarchy(ctx context.Context) error
}

// Service handles catalog item business logic
type Service struct {
	repo     domain.CatalogItemRepository
	resolver AncestorResolver
	cache    HierarchyInvalidator
	logger   *logger.Logger
}

// NewService creates a new catalog service
func NewService(
	repo domain.CatalogItemRepository,
	resolver AncestorResolver,
	cache HierarchyInvalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		cache:    cache,
		logger:   log,
	}
}

// Create attaches a new item to a leaf category and stores its resolved ancestors
func (s *Service) Create(ctx context.Context, item *domain.CatalogItem) error {
	if err := validator.Struct(item); err != nil {
		s.logger.Error("Catalog item validation failed", err)
		return err
	}

	ancestors, err := s.resolveLeaf(ctx, item.CategoryID)
	if err != nil {
		return err
	}
	item.SetAncestors(ancestors)

	// rating fields belong to the rating aggregator
	item.Rating = 0
	item.ReviewCount = 0

	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error("Failed to create catalog item", err)
		return err
	}

	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"item_id":     item.ID,
		"sku":         item.SKU,
		"category_id": item.CategoryID,
	}).Info("Catalog item created successfully")

	return nil
}

// GetByID retrieves a catalog item by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Catalog item not found: %s", id)
		} else {
			s.logger.Error("Failed to get catalog item", err)
		}
		return nil, err
	}

	return item, nil
}

// List retrieves a filtered, paginated list of catalog items
func (s *Service) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.CatalogItem, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, 0, domain.Invalidf("invalid level, must be C1, C2 or C3")
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list catalog items", err)
		return nil, 0, err
	}

	return items, total, nil
}

// Update applies a partial update. A changed leaf category is validated and its
// ancestors are resolved again.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.CatalogItemPatch) (*domain.CatalogItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get catalog item for update", err)
		}
		return nil, err
	}

	categoryChanged := patch.Apply(item)
	if err := validator.Struct(item); err != nil {
		s.logger.Error("Catalog item validation failed", err)
		return nil, err
	}

	if categoryChanged {
		ancestors, err := s.resolveLeaf(ctx, item.CategoryID)
		if err != nil {
			return nil, err
		}
		item.SetAncestors(ancestors)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		s.logger.Error("Failed to update catalog item", err)
		return nil, err
	}

	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"item_id":          item.ID,
		"category_changed": categoryChanged,
	}).Info("Catalog item updated successfully")

	return item, nil
}

// Delete removes a catalog item
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete catalog item", err)
		}
		return err
	}

	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"item_id": id,
	}).Info("Catalog item deleted successfully")

	return nil
}

// AdjustStock adds a signed delta to stock; the result never drops below zero
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	stock, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to adjust stock", err)
		}
		return 0, err
	}

	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"item_id": id,
		"delta":   delta,
		"stock":   stock,
	}).Info("Catalog item stock adjusted")

	return stock, nil
}

// IncrementSales adds a positive delta to the sales counter
func (s *Service) IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	if delta <= 0 {
		return 0, domain.Invalidf("sales increment must be positive")
	}

	sales, err := s.repo.IncrementSales(ctx, id, delta)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to increment sales", err)
		}
		return 0, err
	}

	s.invalidateHierarchy(ctx)

	return sales, nil
}

// resolveLeaf maps resolver failures to client errors: an unknown category is invalid input
func (s *Service) resolveLeaf(ctx context.Context, leafID uuid.UUID) (domain.Ancestors, error) {
	ancestors, err := s.resolver.ResolveAncestors(ctx, leafID)
	switch {
	case err == nil:
		return ancestors, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.Ancestors{}, domain.Invalidf("category %s does not exist", leafID)
	case errors.Is(err, domain.ErrInvalidInput):
		return domain.Ancestors{}, err
	default:
		s.logger.Error("Failed to resolve category ancestors", err)
		return domain.Ancestors{}, err
	}
}

func (s *Service) invalidateHierarchy(ctx context.Context) {
	if err := s.cache.InvalidateHierarchy(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate hierarchy cache: %v", err)
	}
}
