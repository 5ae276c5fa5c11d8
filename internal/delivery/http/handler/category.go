package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/category"
)

// CategoryHandler handles HTTP requests for the category tree
type CategoryHandler struct {
	service *category.Service
	logger  *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *category.Service, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  log,
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Level       string      `json:"level"`
	ParentIDs   []uuid.UUID `json:"parent_ids"`
}

// UpdateCategoryRequest represents the request body for a partial category update
type UpdateCategoryRequest struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Level       *string      `json:"level,omitempty"`
	ParentIDs   *[]uuid.UUID `json:"parent_ids,omitempty"`
}

// Create handles POST /api/v1/categories
// @Summary Create a category
// @Description Create a C1, C2 or C3 category. C1 has no parents, C2 parents must be C1 and C3 parents must be C2.
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body CreateCategoryRequest true "Category details"
// @Success 201 {object} map[string]interface{} "Category created successfully"
// @Failure 400 {object} map[string]string "Invalid hierarchy or input"
// @Failure 409 {object} map[string]string "Duplicate category"
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := &domain.Category{
		Name:        req.Name,
		Description: req.Description,
		Level:       domain.CategoryLevel(req.Level),
		ParentIDs:   req.ParentIDs,
	}

	if err := h.service.Create(r.Context(), c); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, c)
}

// Update handles PUT /api/v1/categories/{id}
// @Summary Update a category
// @Description Partially update a category. Items below it are re-indexed when parents or level change.
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID (UUID)"
// @Param category body UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Category updated successfully"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req UpdateCategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := domain.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		ParentIDs:   req.ParentIDs,
	}
	if req.Level != nil {
		level, err := domain.ParseCategoryLevel(*req.Level)
		if err != nil {
			h.handleError(w, err)
			return
		}
		patch.Level = &level
	}

	c, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, c)
}

// Delete handles DELETE /api/v1/categories/{id}
// @Summary Delete a category
// @Description Delete a category. Children and items are not removed.
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID (UUID)"
// @Success 204 "Category deleted successfully"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// GetByID handles GET /api/v1/categories/{id}
// @Summary Get a category
// @Description Get a category with resolved parents, direct children and attached items
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID (UUID)"
// @Success 200 {object} map[string]interface{} "Category details"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, detail)
}

// List handles GET /api/v1/categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} map[string]interface{} "All categories"
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, categories)
}

// ListByLevel handles GET /api/v1/categories/level/{level}
// @Summary List categories of one level
// @Tags Categories
// @Produce json
// @Param level path string true "C1, C2 or C3"
// @Success 200 {object} map[string]interface{} "Categories at the level"
// @Failure 400 {object} map[string]string "Invalid level"
// @Router /categories/level/{level} [get]
func (h *CategoryHandler) ListByLevel(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListByLevel(r.Context(), chi.URLParam(r, "level"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, categories)
}

// Hierarchy handles GET /api/v1/categories/hierarchy
// @Summary Category tree
// @Description Nested C1 > C2 > C3 tree sorted by name. Results are cached.
// @Tags Categories
// @Produce json
// @Success 200 {object} map[string]interface{} "Category tree"
// @Router /categories/hierarchy [get]
func (h *CategoryHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	h.hierarchy(w, r, false)
}

// CatalogHierarchy handles GET /api/v1/catalog/hierarchy
// @Summary Category tree with items
// @Description Nested tree where every leaf carries its attached catalog items
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Category tree with items"
// @Router /catalog/hierarchy [get]
func (h *CategoryHandler) CatalogHierarchy(w http.ResponseWriter, r *http.Request) {
	h.hierarchy(w, r, true)
}

func (h *CategoryHandler) hierarchy(w http.ResponseWriter, r *http.Request, withItems bool) {
	tree, err := h.service.Hierarchy(r.Context(), withItems)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, tree)
}

// Path handles GET /api/v1/categories/{id}/path
// @Summary Breadcrumb path
// @Description Root-first path following the first parent of every node
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID (UUID)"
// @Success 200 {object} map[string]interface{} "Breadcrumb"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id}/path [get]
func (h *CategoryHandler) Path(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	path, err := h.service.Path(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, path)
}

// Items handles GET /api/v1/categories/{id}/items
// @Summary Items below a category
// @Description Items whose ancestor at the given level (or any level) is the category
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID (UUID)"
// @Param level query string false "C1, C2 or C3"
// @Success 200 {object} map[string]interface{} "Items"
// @Failure 400 {object} map[string]string "Invalid level"
// @Router /categories/{id}/items [get]
func (h *CategoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	items, err := h.service.ItemsByCategory(r.Context(), id, r.URL.Query().Get("level"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, items)
}

// TopItems handles GET /api/v1/categories/{id}/top-items
// @Summary Items under a C1 category
// @Tags Categories
// @Produce json
// @Param id path string true "C1 category ID (UUID)"
// @Success 200 {object} map[string]interface{} "Items"
// @Failure 400 {object} map[string]string "Category is not C1"
// @Failure 404 {object} map[string]string "Category not found"
// @Router /categories/{id}/top-items [get]
func (h *CategoryHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	items, err := h.service.TopItems(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, items)
}

func (h *CategoryHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Category not found")
}
