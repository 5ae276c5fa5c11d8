package postgres

import (
	"fmt"
	"strings"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

// queryArgs collects positional arguments while a statement is assembled
type queryArgs struct {
	values []interface{}
}

// add appends v and returns its placeholder
func (q *queryArgs) add(v interface{}) string {
	q.values = append(q.values, v)
	return fmt.Sprintf("$%d", len(q.values))
}

var itemSortColumns = map[string]string{
	"created_at":   "created_at",
	"price":        "price",
	"title":        "title",
	"rating":       "rating",
	"review_count": "review_count",
	"sales_count":  "sales_count",
	"stock":        "stock",
}

func itemOrderClause(sortBy, sortOrder string) string {
	column, ok := itemSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id", column, direction)
}

// escapeLike makes user input literal inside an ILIKE pattern
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// itemFilterConditions builds the WHERE conditions shared by both item tables.
// The category filter only applies to tables carrying the denormalized ancestor columns.
func itemFilterConditions(f domain.ItemFilter, q *queryArgs, withCategories bool) []string {
	var conds []string

	if f.MinPrice != nil {
		conds = append(conds, "price >= "+q.add(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+q.add(*f.MaxPrice))
	}
	if f.MinRating != nil {
		conds = append(conds, "rating >= "+q.add(*f.MinRating))
	}
	if f.Brand != "" {
		conds = append(conds, "brand = "+q.add(f.Brand))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := q.add("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR sku ILIKE %[1]s OR brand ILIKE %[1]s)", p))
	}
	if withCategories && f.CategoryID != nil {
		conds = append(conds, categoryCondition(*f.CategoryID, f.Level, q))
	}

	return conds
}

func categoryCondition(id interface{}, level domain.CategoryLevel, q *queryArgs) string {
	p := q.add(id)
	switch level {
	case domain.LevelTop:
		return "top_category_id = " + p
	case domain.LevelMid:
		return "mid_category_id = " + p
	case domain.LevelLeaf:
		return "category_id = " + p
	default:
		return fmt.Sprintf("(category_id = %[1]s OR mid_category_id = %[1]s OR top_category_id = %[1]s)", p)
	}
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// showcaseClauses returns the conditions and ordering of a derived view.
// trendingCond carries the table's own trending signal.
func showcaseClauses(sq domain.ShowcaseQuery, trendingCond string, q *queryArgs) ([]string, string, error) {
	switch sq.Kind {
	case domain.ShowcaseBestSellers:
		return []string{"sales_count > 0"}, "ORDER BY sales_count DESC, id", nil
	case domain.ShowcaseTopRated:
		return []string{"rating >= " + q.add(sq.MinRating), "review_count > 0"},
			"ORDER BY rating DESC, review_count DESC, id", nil
	case domain.ShowcaseTrending:
		return []string{trendingCond}, "ORDER BY sales_count DESC, rating DESC, id", nil
	case domain.ShowcaseNewArrivals:
		return []string{"created_at >= " + q.add(sq.Since)}, "ORDER BY created_at DESC, id", nil
	case domain.ShowcaseFeatured:
		return []string{"is_featured"}, "ORDER BY created_at DESC, id", nil
	case domain.ShowcaseBrand:
		return []string{"brand = " + q.add(sq.Brand)}, "ORDER BY created_at DESC, id", nil
	default:
		return nil, "", domain.Invalidf("unknown showcase %q", sq.Kind)
	}
}
