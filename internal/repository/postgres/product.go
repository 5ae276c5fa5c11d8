package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

const productColumns = `id, collection_id, title, description, price, stock, sku, image_url,
	sales_count, rating, review_count, brand, is_featured, is_trending, created_at, updated_at`

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (collection_id, title, description, price, stock, sku, image_url,
			sales_count, brand, is_featured, is_trending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, rating, review_count, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.CollectionID,
		product.Title,
		product.Description,
		product.Price,
		product.Stock,
		product.SKU,
		product.ImageURL,
		product.SalesCount,
		product.Brand,
		product.IsFeatured,
		product.IsTrending,
		now,
		now,
	).Scan(&product.ID, &product.Rating, &product.ReviewCount, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// List retrieves a filtered page of products
func (r *ProductRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Product, int, error) {
	q := &queryArgs{}
	conds := itemFilterConditions(filter, q, false)
	if filter.CollectionID != nil {
		conds = append(conds, "collection_id = "+q.add(*filter.CollectionID))
	}
	where := whereClause(conds)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products `+where, q.values...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s %s LIMIT %s OFFSET %s`,
		productColumns, where, itemOrderClause(filter.SortBy, filter.SortOrder),
		q.add(filter.Limit), q.add(filter.Offset))

	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query, q.values...); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Update updates an existing product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET collection_id = $1, title = $2, description = $3, price = $4, sku = $5, image_url = $6,
			brand = $7, is_featured = $8, is_trending = $9, updated_at = $10
		WHERE id = $11
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.CollectionID,
		product.Title,
		product.Description,
		product.Price,
		product.SKU,
		product.ImageURL,
		product.Brand,
		product.IsFeatured,
		product.IsTrending,
		time.Now(),
		product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return mapWriteError(err)
	}

	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// AdjustStock adds delta to stock, flooring at zero
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `UPDATE products SET stock = GREATEST(stock + $1, 0), updated_at = NOW() WHERE id = $2 RETURNING stock`

	var stock int
	if err := r.db.QueryRowxContext(ctx, query, delta, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return stock, nil
}

// IncrementSales adds delta to the sales counter
func (r *ProductRepository) IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `UPDATE products SET sales_count = sales_count + $1, updated_at = NOW() WHERE id = $2 RETURNING sales_count`

	var sales int
	if err := r.db.QueryRowxContext(ctx, query, delta, id).Scan(&sales); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	return sales, nil
}

// UpdateRating stores the aggregated rating of a product
func (r *ProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	query := `UPDATE products SET rating = $1, review_count = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, rating, reviewCount, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

// Showcase answers a derived view. Products trend on their explicit flag.
func (r *ProductRepository) Showcase(ctx context.Context, sq domain.ShowcaseQuery) ([]domain.SellableItem, error) {
	q := &queryArgs{}
	conds, order, err := showcaseClauses(sq, "is_trending", q)
	if err != nil {
		return nil, err
	}
	if sq.CollectionID != nil {
		conds = append(conds, "collection_id = "+q.add(*sq.CollectionID))
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s %s LIMIT %s`,
		productColumns, whereClause(conds), order, q.add(sq.Limit))

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, q.values...); err != nil {
		return nil, err
	}

	out := make([]domain.SellableItem, len(products))
	for i, p := range products {
		out[i] = p
	}
	return out, nil
}
