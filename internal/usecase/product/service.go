package product

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/validator"
)

// Service handles collection and product business logic
type Service struct {
	repo        domain.ProductRepository
	collections domain.CollectionRepository
	logger      *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, collections domain.CollectionRepository, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		collections: collections,
		logger:      log,
	}
}

// Create creates a new product inside an existing collection
func (s *Service) Create(ctx context.Context, product *domain.Product) error {
	if err := validator.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return err
	}

	if err := s.requireCollection(ctx, product.CollectionID); err != nil {
		return err
	}

	product.Rating = 0
	product.ReviewCount = 0

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id":    product.ID,
		"collection_id": product.CollectionID,
		"title":         product.Title,
	}).Info("Product created successfully")

	return nil
}

// GetByID retrieves a product by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// List retrieves a filtered, paginated list of products
func (s *Service) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Product, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// ListByCollection lists the products of one collection
func (s *Service) ListByCollection(ctx context.Context, collectionID uuid.UUID, filter domain.ItemFilter) ([]*domain.Product, int, error) {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return nil, 0, err
	}

	filter.CollectionID = &collectionID
	return s.List(ctx, filter)
}

// Update applies a partial update to a product
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get product for update", err)
		}
		return nil, err
	}

	patch.Apply(product)
	if err := validator.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return nil, err
	}

	if patch.CollectionID != nil {
		if err := s.requireCollection(ctx, product.CollectionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", err)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
	}).Info("Product updated successfully")

	return product, nil
}

// Delete removes a product
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete product", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

// AdjustStock adds a signed delta to stock; the result never drops below zero
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	stock, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to adjust product stock", err)
		}
		return 0, err
	}
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
			s.logger.Error("Failed to increment product sales", err)
		}
		return 0, err
	}
	return sales, nil
}

// CreateCollection creates a new collection
func (s *Service) CreateCollection(ctx context.Context, collection *domain.Collection) error {
	if err := validator.Struct(collection); err != nil {
		s.logger.Error("Collection validation failed", err)
		return err
	}

	if err := s.collections.Create(ctx, collection); err != nil {
		s.logger.Error("Failed to create collection", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"collection_id": collection.ID,
		"name":          collection.Name,
	}).Info("Collection created successfully")

	return nil
}

// GetCollection retrieves a collection by ID
func (s *Service) GetCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	collection, err := s.collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Collection not found: %s", id)
		} else {
			s.logger.Error("Failed to get collection", err)
		}
		return nil, err
	}
	return collection, nil
}

// ListCollections returns every collection
func (s *Service) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	collections, err := s.collections.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list collections", err)
		return nil, err
	}
	return collections, nil
}

// UpdateCollection overwrites the editable collection fields
func (s *Service) UpdateCollection(ctx context.Context, collection *domain.Collection) error {
	if err := validator.Struct(collection); err != nil {
		s.logger.Error("Collection validation failed", err)
		return err
	}

	if err := s.collections.Update(ctx, collection); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update collection", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"collection_id": collection.ID,
	}).Info("Collection updated successfully")

	return nil
}

// DeleteCollection removes a collection; its products are kept
func (s *Service) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	if err := s.collections.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete collection", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"collection_id": id,
	}).Info("Collection deleted successfully")

	return nil
}

func (s *Service) requireCollection(ctx context.Context, id uuid.UUID) error {
	_, err := s.collections.GetByID(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.Invalidf("collection %s does not exist", id)
	default:
		s.logger.Error("Failed to check collection", err)
		return err
	}
}
