package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

const uniqueViolation = "23505"

// mapWriteError translates unique violations into domain.ErrConflict
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrConflict, conflictMessage(pqErr.Constraint))
	}
	return err
}

func conflictMessage(constraint string) string {
	switch constraint {
	case "idx_categories_name_parents_level":
		return "category with this name already exists under the same parents and level"
	case "idx_catalog_items_sku":
		return "item with this SKU already exists"
	default:
		return "duplicate value"
	}
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
