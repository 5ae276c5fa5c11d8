package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogItem is a sellable item attached to a leaf category
type CatalogItem struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title" validate:"required,min=1,max=255"`
	Description   *string    `json:"description,omitempty" db:"description"`
	Price         float64    `json:"price" db:"price" validate:"gte=0"`
	Stock         int        `json:"stock" db:"stock" validate:"gte=0"`
	SKU           string     `json:"sku" db:"sku" validate:"required,min=1,max=64"`
	ImageURL      *string    `json:"image_url,omitempty" db:"image_url"`
	CategoryID    uuid.UUID  `json:"category_id" db:"category_id" validate:"required"`
	MidCategoryID *uuid.UUID `json:"mid_category_id,omitempty" db:"mid_category_id"`
	TopCategoryID *uuid.UUID `json:"top_category_id,omitempty" db:"top_category_id"`
	SalesCount    int        `json:"sales_count" db:"sales_count" validate:"gte=0"`
	Rating        float64    `json:"rating" db:"rating"`
	ReviewCount   int        `json:"review_count" db:"review_count"`
	Brand         string     `json:"brand" db:"brand" validate:"max=100"`
	IsFeatured    bool       `json:"is_featured" db:"is_featured"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Kind implements SellableItem
func (i *CatalogItem) Kind() ItemKind { return ItemKindCatalog }

// Summary implements SellableItem
func (i *CatalogItem) Summary() ItemSummary {
	return ItemSummary{
		ID:          i.ID,
		Title:       i.Title,
		Brand:       i.Brand,
		SalesCount:  i.SalesCount,
		Rating:      i.Rating,
		ReviewCount: i.ReviewCount,
		CreatedAt:   i.CreatedAt,
	}
}

// SetAncestors stores the denormalized mid/top references
func (i *CatalogItem) SetAncestors(a Ancestors) {
	i.MidCategoryID = a.MidID
	i.TopCategoryID = a.TopID
}

// CatalogItemPatch is a partial item update. Rating and review count are owned
// by the rating aggregator and stock/sales by the counter operations, so none of them appear here.
type CatalogItemPatch struct {
	Title       *string
	Description *string
	Price       *float64
	SKU         *string
	ImageURL    *string
	CategoryID  *uuid.UUID
	Brand       *string
	IsFeatured  *bool
}

// Apply copies the set fields onto i and reports whether the leaf category changed
func (p CatalogItemPatch) Apply(i *CatalogItem) (categoryChanged bool) {
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.Description != nil {
		i.Description = p.Description
	}
	if p.Price != nil {
		i.Price = *p.Price
	}
	if p.SKU != nil {
		i.SKU = *p.SKU
	}
	if p.ImageURL != nil {
		i.ImageURL = p.ImageURL
	}
	if p.Brand != nil {
		i.Brand = *p.Brand
	}
	if p.IsFeatured != nil {
		i.IsFeatured = *p.IsFeatured
	}
	if p.CategoryID != nil && *p.CategoryID != i.CategoryID {
		i.CategoryID = *p.CategoryID
		return true
	}
	return false
}

// ItemFilter holds list filters shared by catalog items and products
type ItemFilter struct {
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
	CategoryID   *uuid.UUID
	Level        CategoryLevel
	CollectionID *uuid.UUID
	MinRating    *float64
	Brand        string
	SortBy       string
	SortOrder    string
	Limit        int
	Offset       int
}

// CatalogItemRepository defines the interface for catalog item data access
type CatalogItemRepository interface {
	ItemSource
	RatingWriter

	// Create persists a new item; duplicate SKU returns ErrConflict
	Create(ctx context.Context, item *CatalogItem) error

	// GetByID retrieves an item by ID
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)

	// List retrieves a filtered page of items and the total match count
	List(ctx context.Context, filter ItemFilter) ([]*CatalogItem, int, error)

	// ListByCategory retrieves items whose ancestor at level (or any level when empty) equals id
	ListByCategory(ctx context.Context, id uuid.UUID, level CategoryLevel) ([]*CatalogItem, error)

	// ListByLeafIDs retrieves items attached to any of the leaf categories
	ListByLeafIDs(ctx context.Context, leafIDs []uuid.UUID) ([]*CatalogItem, error)

	// Update overwrites the editable fields of an item
	Update(ctx context.Context, item *CatalogItem) error

	// Delete removes an item
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustStock atomically adds delta to stock with a zero floor and returns the new stock
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// IncrementSales atomically adds delta to the sales counter and returns the new value
	IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// ListLeafCategoryIDs returns the distinct leaf categories referenced by items
	ListLeafCategoryIDs(ctx context.Context) ([]uuid.UUID, error)

	// ReindexLeaf rewrites ancestors for every item attached to leafID
	ReindexLeaf(ctx context.Context, leafID uuid.UUID, ancestors Ancestors) (int64, error)
}
