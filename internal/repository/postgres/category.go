package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

const categoryColumns = `id, name, description, level, parent_ids, created_at, updated_at`

// categoryRow is the table shape of a category; parent ids travel as a uuid[] array
type categoryRow struct {
	ID          uuid.UUID      `db:"id"`
	Name        string         `db:"name"`
	Description *string        `db:"description"`
	Level       string         `db:"level"`
	ParentIDs   pq.StringArray `db:"parent_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row categoryRow) toDomain() (*domain.Category, error) {
	parents := make([]uuid.UUID, 0, len(row.ParentIDs))
	for _, raw := range row.ParentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		parents = append(parents, id)
	}

	return &domain.Category{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Level:       domain.CategoryLevel(row.Level),
		ParentIDs:   parents,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func rowsToCategories(rows []categoryRow) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// parentKey is the order-independent form of a parent set used by the uniqueness index
func parentKey(ids []uuid.UUID) string {
	keys := uuidStrings(ids)
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// CategoryRepository implements domain.CategoryRepository for PostgreSQL
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, description, level, parent_ids, parent_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowxContext(
		ctx,
		query,
		category.Name,
		category.Description,
		string(category.Level),
		pq.Array(uuidStrings(category.ParentIDs)),
		parentKey(category.ParentIDs),
		now,
		now,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	var row categoryRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return row.toDomain()
}

// GetByIDs retrieves the categories among ids that exist
func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Category, error) {
	if len(ids) == 0 {
		return []*domain.Category{}, nil
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ANY($1::uuid[]) ORDER BY name`

	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, err
	}

	return rowsToCategories(rows)
}

// List retrieves every category
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`

	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	return rowsToCategories(rows)
}

// ListByLevel retrieves every category at one level
func (r *CategoryRepository) ListByLevel(ctx context.Context, level domain.CategoryLevel) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE level = $1 ORDER BY name`

	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, query, string(level)); err != nil {
		return nil, err
	}

	return rowsToCategories(rows)
}

// ListChildren retrieves the categories that list id among their parents
func (r *CategoryRepository) ListChildren(ctx context.Context, id uuid.UUID) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE $1 = ANY(parent_ids) ORDER BY name`

	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, err
	}

	return rowsToCategories(rows)
}

// Update overwrites a category
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, level = $3, parent_ids = $4::uuid[], parent_key = $5, updated_at = $6
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		category.Name,
		category.Description,
		string(category.Level),
		pq.Array(uuidStrings(category.ParentIDs)),
		parentKey(category.ParentIDs),
		time.Now(),
		category.ID,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return mapWriteError(err)
	}

	return nil
}

// Delete removes a category; children and items keep their references
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}
