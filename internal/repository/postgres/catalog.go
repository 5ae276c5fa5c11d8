package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

const catalogColumns = `id, title, description, price, stock, sku, image_url, category_id,
	mid_category_id, top_category_id, sales_count, rating, review_count, brand, is_featured,
	created_at, updated_at`

// CatalogRepository implements domain.CatalogItemRepository for PostgreSQL
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new PostgreSQL catalog item repository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Create inserts an item with its resolved ancestors
func (r *CatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		INSERT INTO catalog_items (title, description, price, stock, sku, image_url, category_id,
			mid_category_id, top_category_id, sales_count, rating, review_count, brand, is_featured,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowxContext(
		ctx,
		query,
		item.Title,
		item.Description,
		item.Price,
		item.Stock,
		item.SKU,
		item.ImageURL,
		item.CategoryID,
		item.MidCategoryID,
		item.TopCategoryID,
		item.SalesCount,
		item.Rating,
		item.ReviewCount,
		item.Brand,
		item.IsFeatured,
		now,
		now,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return nil
}

// GetByID retrieves an item by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE id = $1`

	var item domain.CatalogItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &item, nil
}

// List retrieves a filtered page of items and the total number of matches
func (r *CatalogRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.CatalogItem, int, error) {
	q := &queryArgs{}
	where := whereClause(itemFilterConditions(filter, q, true))

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM catalog_items `+where, q.values...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM catalog_items %s %s LIMIT %s OFFSET %s`,
		catalogColumns, where, itemOrderClause(filter.SortBy, filter.SortOrder),
		q.add(filter.Limit), q.add(filter.Offset))

	items := []*domain.CatalogItem{}
	if err := r.db.SelectContext(ctx, &items, query, q.values...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListByCategory retrieves items under a category through the denormalized ancestor columns
func (r *CatalogRepository) ListByCategory(ctx context.Context, id uuid.UUID, level domain.CategoryLevel) ([]*domain.CatalogItem, error) {
	q := &queryArgs{}
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE %s ORDER BY created_at DESC, id`,
		catalogColumns, categoryCondition(id, level, q))

	items := []*domain.CatalogItem{}
	if err := r.db.SelectContext(ctx, &items, query, q.values...); err != nil {
		return nil, err
	}

	return items, nil
}

// ListByLeafIDs retrieves items attached to any of the given leaf categories
func (r *CatalogRepository) ListByLeafIDs(ctx context.Context, leafIDs []uuid.UUID) ([]*domain.CatalogItem, error) {
	items := []*domain.CatalogItem{}
	if len(leafIDs) == 0 {
		return items, nil
	}

	query := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE category_id = ANY($1::uuid[]) ORDER BY title, id`
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(uuidStrings(leafIDs))); err != nil {
		return nil, err
	}

	return items, nil
}

// Update overwrites the editable columns of an item. Counters and rating fields
// are left to their dedicated operations.
func (r *CatalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		UPDATE catalog_items
		SET title = $1, description = $2, price = $3, sku = $4, image_url = $5, category_id = $6,
			mid_category_id = $7, top_category_id = $8, brand = $9, is_featured = $10, updated_at = $11
		WHERE id = $12
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		item.Title,
		item.Description,
		item.Price,
		item.SKU,
		item.ImageURL,
		item.CategoryID,
		item.MidCategoryID,
		item.TopCategoryID,
		item.Brand,
		item.IsFeatured,
		time.Now(),
		item.ID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return mapWriteError(err)
	}

	return nil
}

// Delete removes an item
func (r *CatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// AdjustStock adds delta to stock in one statement, flooring the result at zero
func (r *CatalogRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE catalog_items
		SET stock = GREATEST(stock + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING stock
	`

	var stock int
	if err := r.db.QueryRowxContext(ctx, query, delta, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return stock, nil
}

// IncrementSales adds delta to the sales counter in one statement
func (r *CatalogRepository) IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE catalog_items
		SET sales_count = sales_count + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING sales_count
	`

	var sales int
	if err := r.db.QueryRowxContext(ctx, query, delta, id).Scan(&sales); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return sales, nil
}

// UpdateRating stores the aggregated rating of an item
func (r *CatalogRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	query := `UPDATE catalog_items SET rating = $1, review_count = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, rating, reviewCount, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// ListLeafCategoryIDs returns the distinct leaf categories items are attached to
func (r *CatalogRepository) ListLeafCategoryIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT category_id FROM catalog_items`); err != nil {
		return nil, err
	}

	return ids, nil
}

// ReindexLeaf rewrites ancestors of every item under leafID whose stored values differ
func (r *CatalogRepository) ReindexLeaf(ctx context.Context, leafID uuid.UUID, ancestors domain.Ancestors) (int64, error) {
	query := `
		UPDATE catalog_items
		SET mid_category_id = $1, top_category_id = $2, updated_at = NOW()
		WHERE category_id = $3
			AND (mid_category_id IS DISTINCT FROM $1 OR top_category_id IS DISTINCT FROM $2)
	`

	result, err := r.db.ExecContext(ctx, query, ancestors.MidID, ancestors.TopID, leafID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Showcase answers a derived view. Catalog items trend on sales.
func (r *CatalogRepository) Showcase(ctx context.Context, sq domain.ShowcaseQuery) ([]domain.SellableItem, error) {
	q := &queryArgs{}
	conds, order, err := showcaseClauses(sq, "sales_count > 0", q)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM catalog_items %s %s LIMIT %s`,
		catalogColumns, whereClause(conds), order, q.add(sq.Limit))

	var items []*domain.CatalogItem
	if err := r.db.SelectContext(ctx, &items, query, q.values...); err != nil {
		return nil, err
	}

	out := make([]domain.SellableItem, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}
