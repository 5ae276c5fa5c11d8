package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/product"
)

// ProductHandler handles HTTP requests for collections and their products
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// CollectionRequest represents the request body for creating or replacing a collection
type CollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	CollectionID uuid.UUID `json:"collection_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	SKU          string    `json:"sku"`
	ImageURL     string    `json:"image_url"`
	SalesCount   int       `json:"sales_count"`
	Brand        string    `json:"brand"`
	IsFeatured   bool      `json:"is_featured"`
	IsTrending   bool      `json:"is_trending"`
}

// UpdateProductRequest represents the request body for a partial product update
type UpdateProductRequest struct {
	CollectionID *uuid.UUID `json:"collection_id,omitempty"`
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	SKU          *string    `json:"sku,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Brand        *string    `json:"brand,omitempty"`
	IsFeatured   *bool      `json:"is_featured,omitempty"`
	IsTrending   *bool      `json:"is_trending,omitempty"`
}

// CreateCollection handles POST /api/v1/collections
// @Summary Create a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection body CollectionRequest true "Collection details"
// @Success 201 {object} map[string]interface{} "Collection created successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /collections [post]
func (h *ProductHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	collection := &domain.Collection{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	if err := h.service.CreateCollection(r.Context(), collection); err != nil {
		h.collectionError(w, err)
		return
	}

	response.Created(w, collection)
}

// GetCollection handles GET /api/v1/collections/{id}
// @Summary Get a collection
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID (UUID)"
// @Success 200 {object} map[string]interface{} "Collection details"
// @Failure 404 {object} map[string]string "Collection not found"
// @Router /collections/{id} [get]
func (h *ProductHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	collection, err := h.service.GetCollection(r.Context(), id)
	if err != nil {
		h.collectionError(w, err)
		return
	}

	response.Success(w, collection)
}

// ListCollections handles GET /api/v1/collections
// @Summary List collections
// @Tags Collections
// @Produce json
// @Success 200 {object} map[string]interface{} "Collections ordered by name"
// @Router /collections [get]
func (h *ProductHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListCollections(r.Context())
	if err != nil {
		h.collectionError(w, err)
		return
	}

	response.Success(w, collections)
}

// UpdateCollection handles PUT /api/v1/collections/{id}
// @Summary Update a collection
// @Tags Collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Collection ID (UUID)"
// @Param collection body CollectionRequest true "Collection details"
// @Success 200 {object} map[string]interface{} "Collection updated successfully"
// @Failure 404 {object} map[string]string "Collection not found"
// @Router /collections/{id} [put]
func (h *ProductHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	var req CollectionRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	collection := &domain.Collection{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	if err := h.service.UpdateCollection(r.Context(), collection); err != nil {
		h.collectionError(w, err)
		return
	}

	response.Success(w, collection)
}

// DeleteCollection handles DELETE /api/v1/collections/{id}
// @Summary Delete a collection
// @Tags Collections
// @Security BearerAuth
// @Param id path string true "Collection ID (UUID)"
// @Success 204 "Collection deleted successfully"
// @Failure 404 {object} map[string]string "Collection not found"
// @Router /collections/{id} [delete]
func (h *ProductHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	if err := h.service.DeleteCollection(r.Context(), id); err != nil {
		h.collectionError(w, err)
		return
	}

	response.NoContent(w)
}

// ListByCollection handles GET /api/v1/collections/{id}/products
// @Summary List products of a collection
// @Tags Collections
// @Produce json
// @Param id path string true "Collection ID (UUID)"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Failure 404 {object} map[string]string "Collection not found"
// @Router /collections/{id}/products [get]
func (h *ProductHandler) ListByCollection(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid collection ID")
		return
	}

	q, err := parseItemFilter(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	products, total, err := h.service.ListByCollection(r.Context(), id, q.filter)
	if err != nil {
		h.collectionError(w, err)
		return
	}

	response.Paginated(w, products, response.NewPagination(q.page, q.pageSize, total))
}

// Create handles POST /api/v1/products
// @Summary Create a product
// @Description Create a product inside an existing collection
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body CreateProductRequest true "Product details"
// @Success 201 {object} map[string]interface{} "Product created successfully"
// @Failure 400 {object} map[string]string "Invalid input or unknown collection"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := &domain.Product{
		CollectionID: req.CollectionID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		SKU:          req.SKU,
		ImageURL:     req.ImageURL,
		SalesCount:   req.SalesCount,
		Brand:        req.Brand,
		IsFeatured:   req.IsFeatured,
		IsTrending:   req.IsTrending,
	}

	if err := h.service.Create(r.Context(), p); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, p)
}

// GetByID handles GET /api/v1/products/{id}
// @Summary Get a product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Product details"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, p)
}

// List handles GET /api/v1/products
// @Summary List products
// @Description Filter by price range, search text, collection, rating and brand
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(20)
// @Param search query string false "Case-insensitive match on title, SKU or brand"
// @Param collection_id query string false "Collection ID"
// @Param min_rating query number false "Minimum rating"
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseItemFilter(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	products, total, err := h.service.List(r.Context(), q.filter)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, products, response.NewPagination(q.page, q.pageSize, total))
}

// Update handles PUT /api/v1/products/{id}
// @Summary Update a product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param product body UpdateProductRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Product updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.service.Update(r.Context(), id, domain.ProductPatch{
		CollectionID: req.CollectionID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		SKU:          req.SKU,
		ImageURL:     req.ImageURL,
		Brand:        req.Brand,
		IsFeatured:   req.IsFeatured,
		IsTrending:   req.IsTrending,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, p)
}

// Delete handles DELETE /api/v1/products/{id}
// @Summary Delete a product
// @Tags Products
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Success 204 "Product deleted successfully"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// AdjustStock handles PATCH /api/v1/products/{id}/stock
// @Summary Adjust product stock
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param delta body DeltaRequest true "Stock delta"
// @Success 200 {object} map[string]interface{} "New stock"
// @Router /products/{id}/stock [patch]
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
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

// IncrementSales handles PATCH /api/v1/products/{id}/sales
// @Summary Increment product sales
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param delta body DeltaRequest true "Sales delta, defaults to 1"
// @Success 200 {object} map[string]interface{} "New sales count"
// @Router /products/{id}/sales [patch]
func (h *ProductHandler) IncrementSales(w http.ResponseWriter, r *http.Request) {
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

func (h *ProductHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Product not found")
}

func (h *ProductHandler) collectionError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Collection not found")
}
