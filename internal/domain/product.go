package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Collection groups products for merchandising
type Collection struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Description string    `json:"description" db:"description" validate:"max=2000"`
	ImageURL    string    `json:"image_url" db:"image_url" validate:"max=1024"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable item attached to a collection instead of the category tree
type Product struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CollectionID uuid.UUID `json:"collection_id" db:"collection_id" validate:"required"`
	Title        string    `json:"title" db:"title" validate:"required,min=1,max=255"`
	Description  string    `json:"description" db:"description" validate:"max=5000"`
	Price        float64   `json:"price" db:"price" validate:"gte=0"`
	Stock        int       `json:"stock" db:"stock" validate:"gte=0"`
	SKU          string    `json:"sku" db:"sku" validate:"max=64"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	SalesCount   int       `json:"sales_count" db:"sales_count" validate:"gte=0"`
	Rating       float64   `json:"rating" db:"rating"`
	ReviewCount  int       `json:"review_count" db:"review_count"`
	Brand        string    `json:"brand" db:"brand" validate:"max=100"`
	IsFeatured   bool      `json:"is_featured" db:"is_featured"`
	IsTrending   bool      `json:"is_trending" db:"is_trending"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Kind implements SellableItem
func (p *Product) Kind() ItemKind { return ItemKindProduct }

// Summary implements SellableItem
func (p *Product) Summary() ItemSummary {
	return ItemSummary{
		ID:          p.ID,
		Title:       p.Title,
		Brand:       p.Brand,
		SalesCount:  p.SalesCount,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt,
	}
}

// ProductPatch is a partial product update
type ProductPatch struct {
	CollectionID *uuid.UUID
	Title        *string
	Description  *string
	Price        *float64
	SKU          *string
	ImageURL     *string
	Brand        *string
	IsFeatured   *bool
	IsTrending   *bool
}

// Apply copies the set fields onto p
func (pp ProductPatch) Apply(p *Product) {
	if pp.CollectionID != nil {
		p.CollectionID = *pp.CollectionID
	}
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.SKU != nil {
		p.SKU = *pp.SKU
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
	if pp.Brand != nil {
		p.Brand = *pp.Brand
	}
	if pp.IsFeatured != nil {
		p.IsFeatured = *pp.IsFeatured
	}
	if pp.IsTrending != nil {
		p.IsTrending = *pp.IsTrending
	}
}

// CollectionRepository defines the interface for collection data access
type CollectionRepository interface {
	// Create creates a new collection
	Create(ctx context.Context, collection *Collection) error

	// GetByID retrieves a collection by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Collection, error)

	// List retrieves all collections ordered by name
	List(ctx context.Context) ([]*Collection, error)

	// Update updates an existing collection
	Update(ctx context.Context, collection *Collection) error

	// Delete removes a collection
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository defines the interface for collection product data access
type ProductRepository interface {
	ItemSource
	RatingWriter

	// Create creates a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves a filtered page of products and the total match count
	List(ctx context.Context, filter ItemFilter) ([]*Product, int, error)

	// Update updates an existing product
	Update(ctx context.Context, product *Product) error

	// Delete removes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustStock atomically adds delta to stock with a zero floor and returns the new stock
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// IncrementSales atomically adds delta to the sales counter and returns the new value
	IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error)
}
