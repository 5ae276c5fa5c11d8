package handler

import (
	"net/http"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
)

const (
	defaultItemPageSize = 20
	maxItemPageSize     = 100
)

// itemListQuery is a parsed catalog/product list request
type itemListQuery struct {
	filter   domain.ItemFilter
	page     int
	pageSize int
}

// parseItemFilter reads price range, search, hierarchy, collection, rating,
// brand, sort and page parameters shared by item listings
func parseItemFilter(r *http.Request) (itemListQuery, error) {
	q := r.URL.Query()

	page, pageSize := request.GetPageParams(r)
	if pageSize <= 0 || pageSize > maxItemPageSize {
		pageSize = defaultItemPageSize
	}
	sortBy, sortOrder := request.GetSortParams(r)

	filter := domain.ItemFilter{
		Search:    q.Get("search"),
		Level:     domain.CategoryLevel(q.Get("level")),
		Brand:     q.Get("brand"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	var err error
	if filter.MinPrice, err = request.GetFloatQuery(r, "min_price"); err != nil {
		return itemListQuery{}, domain.Invalidf("%v", err)
	}
	if filter.MaxPrice, err = request.GetFloatQuery(r, "max_price"); err != nil {
		return itemListQuery{}, domain.Invalidf("%v", err)
	}
	if filter.MinRating, err = request.GetFloatQuery(r, "min_rating"); err != nil {
		return itemListQuery{}, domain.Invalidf("%v", err)
	}
	if filter.CategoryID, err = request.GetUUIDQuery(r, "category_id"); err != nil {
		return itemListQuery{}, domain.Invalidf("invalid category_id")
	}
	if filter.CollectionID, err = request.GetUUIDQuery(r, "collection_id"); err != nil {
		return itemListQuery{}, domain.Invalidf("invalid collection_id")
	}

	return itemListQuery{filter: filter, page: page, pageSize: pageSize}, nil
}
