package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/catalog"
)

// CatalogHandler handles HTTP requests for catalog items
type CatalogHandler struct {
	service *catalog.Service
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *catalog.Service, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  log,
	}
}

// CreateCatalogItemRequest represents the request body for creating a catalog item
type CreateCatalogItemRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	SKU         string    `json:"sku"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CategoryID  uuid.UUID `json:"category_id"`
	SalesCount  int       `json:"sales_count"`
	Brand       string    `json:"brand"`
	IsFeatured  bool      `json:"is_featured"`
}

// UpdateCatalogItemRequest represents the request body for a partial catalog item update
type UpdateCatalogItemRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	SKU         *string    `json:"sku,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Brand       *string    `json:"brand,omitempty"`
	IsFeatured  *bool      `json:"is_featured,omitempty"`
}

// DeltaRequest carries a signed stock or sales adjustment
type DeltaRequest struct {
	Delta int `json:"delta"`
}

// Create handles POST /api/v1/catalog
// @Summary Create a catalog item
// @Description Attach a new item to a C3 category. Mid and top categories are resolved automatically.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body CreateCatalogItemRequest true "Item details"
// @Success 201 {object} map[string]interface{} "Item created successfully"
// @Failure 400 {object} map[string]string "Invalid input or category"
// @Failure 409 {object} map[string]string "Duplicate SKU"
// @Router /catalog [post]
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCatalogItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item := &domain.CatalogItem{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		SalesCount:  req.SalesCount,
		Brand:       req.Brand,
		IsFeatured:  req.IsFeatured,
	}

	if err := h.service.Create(r.Context(), item); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, item)
}

// GetByID handles GET /api/v1/catalog/{id}
// @Summary Get a catalog item
// @Tags Catalog
// @Produce json
// @Param id path string true "Item ID (UUID)"
// @Success 200 {object} map[string]interface{} "Item details"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /catalog/{id} [get]
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, item)
}

// List handles GET /api/v1/catalog
// @Summary List catalog items
// @Description Filter by price range, search text, category (any level or a given one), rating and brand
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(20)
// @Param search query string false "Case-insensitive match on title, SKU or brand"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param category_id query string false "Category ID"
// @Param level query string false "Level of category_id (C1, C2 or C3)"
// @Param min_rating query number false "Minimum rating"
// @Param sort_by query string false "created_at, price, rating, sales_count or title"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} map[string]interface{} "Paginated list of items"
// @Failure 400 {object} map[string]string "Invalid filter"
// @Router /catalog [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseItemFilter(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	items, total, err := h.service.List(r.Context(), q.filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, items, response.NewPagination(q.page, q.pageSize, total))
}

// Update handles PUT /api/v1/catalog/{id}
// @Summary Update a catalog item
// @Description Partially update an item. A new category must be a C3 category and re-resolves the ancestors.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID (UUID)"
// @Param item body UpdateCatalogItemRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Item updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /catalog/{id} [put]
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req UpdateCatalogItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.Update(r.Context(), id, domain.CatalogItemPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		SKU:         req.SKU,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		Brand:       req.Brand,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, item)
}

// Delete handles DELETE /api/v1/catalog/{id}
// @Summary Delete a catalog item
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Item ID (UUID)"
// @Success 204 "Item deleted successfully"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /catalog/{id} [delete]
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// AdjustStock handles PATCH /api/v1/catalog/{id}/stock
// @Summary Adjust stock
// @Description Atomically add a signed delta to stock. Stock never drops below zero.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID (UUID)"
// @Param delta body DeltaRequest true "Stock delta"
// @Success 200 {object} map[string]interface{} "New stock"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /catalog/{id}/stock [patch]
func (h *CatalogHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, req, ok := decodeDelta(w, r)
	if !ok {
		return
	}

	stock, err := h.service.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{"id": id, "stock": stock})
}

// IncrementSales handles PATCH /api/v1/catalog/{id}/sales
// @Summary Increment sales
// @Description Atomically add a positive delta to the sales counter
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID (UUID)"
// @Param delta body DeltaRequest true "Sales delta, defaults to 1"
// @Success 200 {object} map[string]interface{} "New sales count"
// @Failure 400 {object} map[string]string "Delta must be positive"
// @Router /catalog/{id}/sales [patch]
func (h *CatalogHandler) IncrementSales(w http.ResponseWriter, r *http.Request) {
	id, req, ok := decodeDelta(w, r)
	if !ok {
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	sales, err := h.service.IncrementSales(r.Context(), id, req.Delta)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{"id": id, "sales_count": sales})
}

func (h *CatalogHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Catalog item not found")
}

// decodeDelta reads the id parameter and an optional delta body
func decodeDelta(w http.ResponseWriter, r *http.Request) (uuid.UUID, DeltaRequest, bool) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid item ID")
		return uuid.Nil, DeltaRequest{}, false
	}

	var req DeltaRequest
	if r.ContentLength != 0 {
		if err := request.DecodeJSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request body")
			return uuid.Nil, DeltaRequest{}, false
		}
	}
	return id, req, true
}
