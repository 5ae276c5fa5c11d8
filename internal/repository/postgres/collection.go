package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

// CollectionRepository implements domain.CollectionRepository for PostgreSQL
type CollectionRepository struct {
	db *sqlx.DB
}

// NewCollectionRepository creates a new PostgreSQL collection repository
func NewCollectionRepository(db *sqlx.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Create(ctx context.Context, collection *domain.Collection) error {
	query := `
		INSERT INTO collections (name, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	return r.db.QueryRowxContext(ctx, query,
		collection.Name, collection.Description, collection.ImageURL, now, now,
	).Scan(&collection.ID, &collection.CreatedAt, &collection.UpdatedAt)
}

func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	query := `SELECT id, name, description, image_url, created_at, updated_at FROM collections WHERE id = $1`

	var collection domain.Collection
	if err := r.db.GetContext(ctx, &collection, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &collection, nil
}

func (r *CollectionRepository) List(ctx context.Context) ([]*domain.Collection, error) {
	query := `SELECT id, name, description, image_url, created_at, updated_at FROM collections ORDER BY name`

	collections := []*domain.Collection{}
	if err := r.db.SelectContext(ctx, &collections, query); err != nil {
		return nil, err
	}

	return collections, nil
}

func (r *CollectionRepository) Update(ctx context.Context, collection *domain.Collection) error {
	query := `
		UPDATE collections
		SET name = $1, description = $2, image_url = $3, updated_at = $4
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		collection.Name, collection.Description, collection.ImageURL, time.Now(), collection.ID,
	).Scan(&collection.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	return err
}

func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}
