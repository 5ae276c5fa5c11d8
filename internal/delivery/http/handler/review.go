package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review.
// Author name and email come from the verified identity.
type CreateReviewRequest struct {
	ProductID    string   `json:"product_id"`
	ProductTitle string   `json:"product_title"`
	OrderID      string   `json:"order_id"`
	Rating       int      `json:"rating"`
	Title        string   `json:"title"`
	Comment      string   `json:"comment"`
	Images       []string `json:"images"`
}

// UpdateReviewRequest represents the fields an author may change
type UpdateReviewRequest struct {
	Rating  *int      `json:"rating,omitempty"`
	Title   *string   `json:"title,omitempty"`
	Comment *string   `json:"comment,omitempty"`
	Images  *[]string `json:"images,omitempty"`
}

// VoteRequest represents a helpfulness vote
type VoteRequest struct {
	Vote string `json:"vote"`
}

// Create handles POST /api/v1/reviews
// @Summary Submit a review
// @Description Submit a review for a product of an order. The review starts pending and the item rating is refreshed.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review and rating refresh status"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 409 {object} map[string]string "Already reviewed for this order"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	result, err := h.service.Create(r.Context(), &domain.Review{
		UserID:       id.UserID,
		UserName:     id.DisplayName(),
		UserEmail:    id.Email,
		ProductID:    productID,
		ProductTitle: req.ProductTitle,
		OrderID:      req.OrderID,
		Rating:       req.Rating,
		Title:        req.Title,
		Comment:      req.Comment,
		Images:       req.Images,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, result)
}

// ListByProduct handles GET /api/v1/reviews/product/{productId}
// @Summary Reviews of a product
// @Description Paginated reviews, approved only unless a status is given. Results are cached.
// @Tags Reviews
// @Produce json
// @Param productId path string true "Product ID (UUID)"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Reviews per page (max 100)" default(10)
// @Param status query string false "pending, approved or rejected" default(approved)
// @Param sort_by query string false "created_at, rating or helpful_count" default(created_at)
// @Param sort_order query string false "asc or desc" default(desc)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID or filter"
// @Router /reviews/product/{productId} [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	opts := listOptions(r)
	page, err := h.service.ListByItem(r.Context(), productID, opts)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.paginated(w, page)
}

// Stats handles GET /api/v1/reviews/product/{productId}/stats
// @Summary Rating statistics of a product
// @Description Average rating, total and distribution over approved reviews
// @Tags Reviews
// @Produce json
// @Param productId path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rating statistics"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Router /reviews/product/{productId}/stats [get]
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	stats, err := h.service.Stats(r.Context(), productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, stats)
}

// Mine handles GET /api/v1/reviews/mine
// @Summary My reviews
// @Description The caller's reviews in every status
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Reviews per page (max 100)" default(10)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /reviews/mine [get]
func (h *ReviewHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	page, err := h.service.Mine(r.Context(), id.UserID, listOptions(r))
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.paginated(w, page)
}

// CanReview handles GET /api/v1/reviews/can-review
// @Summary Review eligibility
// @Description Whether the caller may still review the product for the order
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param product_id query string true "Product ID (UUID)"
// @Param order_id query string true "Order ID"
// @Success 200 {object} map[string]interface{} "Eligibility"
// @Failure 400 {object} map[string]string "Missing parameters"
// @Router /reviews/can-review [get]
func (h *ReviewHandler) CanReview(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	productID, err := request.GetUUIDQuery(r, "product_id")
	if err != nil || productID == nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	eligibility, err := h.service.CanReview(r.Context(), id.UserID, r.URL.Query().Get("order_id"), *productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, eligibility)
}

// Update handles PUT /api/v1/reviews/{id}
// @Summary Edit my review
// @Description Change rating, title, comment or images. An approved review returns to pending.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param review body UpdateReviewRequest true "Fields to update"
// @Success 200 {object} map[string]interface{} "Review and rating refresh status"
// @Failure 403 {object} map[string]string "Not the author"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateByOwner(r.Context(), reviewID, id.UserID, domain.UserReviewEdit{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete my review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Deleted review and rating refresh status"
// @Failure 403 {object} map[string]string "Not the author"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	result, err := h.service.DeleteByOwner(r.Context(), reviewID, id.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// Vote handles POST /api/v1/reviews/{id}/vote
// @Summary Vote on helpfulness
// @Description Repeating a vote removes it, the opposite vote flips it
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param vote body VoteRequest true "helpful or notHelpful"
// @Success 200 {object} map[string]interface{} "Vote action and counters"
// @Failure 400 {object} map[string]string "Invalid vote"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/vote [post]
func (h *ReviewHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	reviewID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req VoteRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Vote(r.Context(), reviewID, id.UserID, domain.VoteType(req.Vote))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ReviewHandler) paginated(w http.ResponseWriter, page *review.Page) {
	response.Paginated(w, page.Reviews, response.Pagination{
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Review not found")
}

// identity returns the verified caller or writes 401
func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authorization header required")
	}
	return id, ok
}

// listOptions reads page, sort and status/rating filters
func listOptions(r *http.Request) review.ListOptions {
	page, pageSize := request.GetPageParams(r)
	sortBy, sortOrder := request.GetSortParams(r)
	return review.ListOptions{
		Status:    domain.ReviewStatus(strings.ToLower(r.URL.Query().Get("status"))),
		Rating:    request.GetIntQuery(r, "rating", 0),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}
