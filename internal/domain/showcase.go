package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemKind distinguishes the two sellable item variants
type ItemKind string

const (
	ItemKindCatalog ItemKind = "catalog"
	ItemKindProduct ItemKind = "product"
)

// ItemSummary is the variant-independent projection used to rank items
type ItemSummary struct {
	ID          uuid.UUID
	Title       string
	Brand       string
	SalesCount  int
	Rating      float64
	ReviewCount int
	CreatedAt   time.Time
}

// SellableItem is implemented by every item type that feeds derived views
type SellableItem interface {
	Kind() ItemKind
	Summary() ItemSummary
}

// ShowcaseKind selects a derived view
type ShowcaseKind string

const (
	ShowcaseBestSellers ShowcaseKind = "best_sellers"
	ShowcaseTopRated    ShowcaseKind = "top_rated"
	ShowcaseTrending    ShowcaseKind = "trending"
	ShowcaseNewArrivals ShowcaseKind = "new_arrivals"
	ShowcaseFeatured    ShowcaseKind = "featured"
	ShowcaseBrand       ShowcaseKind = "brand"
)

// ShowcaseQuery parameterizes a derived-view read against one item source.
// Sources interpret Trending with their own signal.
type ShowcaseQuery struct {
	Kind         ShowcaseKind
	Limit        int
	MinRating    float64
	Since        time.Time
	Brand        string
	CollectionID *uuid.UUID
}

// ItemSource is a store that can answer derived-view queries
type ItemSource interface {
	// Showcase returns at most q.Limit items matching the view, already ordered
	Showcase(ctx context.Context, q ShowcaseQuery) ([]SellableItem, error)
}

// RatingWriter stores aggregated rating fields on an item
type RatingWriter interface {
	// UpdateRating overwrites rating and review count; returns ErrNotFound if the id is not in this store
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error
}

// ShowcaseEntry is one ranked item in a derived view
type ShowcaseEntry struct {
	Kind ItemKind     `json:"kind"`
	Item SellableItem `json:"item"`
}

// CollectionTrending groups trending products of one collection
type CollectionTrending struct {
	Collection *Collection `json:"collection"`
	Products   []*Product  `json:"products"`
}
