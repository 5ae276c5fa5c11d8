package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/review"
)

// RejectRequest carries the moderator's reason
type RejectRequest struct {
	Reason string `json:"reason"`
}

// AdminList handles GET /api/v1/admin/reviews
// @Summary List reviews for moderation
// @Tags Admin Reviews
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param rating query int false "Exact rating"
// @Param product_id query string false "Product ID"
// @Param user_id query string false "Author ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Reviews per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 403 {object} map[string]string "Administrator role required"
// @Router /admin/reviews [get]
func (h *ReviewHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	opts, ok := adminListOptions(w, r)
	if !ok {
		return
	}

	page, err := h.service.AdminList(r.Context(), opts)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.paginated(w, page)
}

// Approve handles PATCH /api/v1/admin/reviews/{id}/approve
// @Summary Approve a review
// @Tags Admin Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review and rating refresh status"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /admin/reviews/{id}/approve [patch]
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}

	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	result, err := h.service.Approve(r.Context(), id, admin.UserID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// Reject handles PATCH /api/v1/admin/reviews/{id}/reject
// @Summary Reject a review
// @Tags Admin Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param reason body RejectRequest true "Rejection reason"
// @Success 200 {object} map[string]interface{} "Review and rating refresh status"
// @Failure 400 {object} map[string]string "Reason required"
// @Router /admin/reviews/{id}/reject [patch]
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}

	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req RejectRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Reject(r.Context(), id, admin.UserID, req.Reason)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// AdminUpdate handles PUT /api/v1/admin/reviews/{id}
// @Summary Edit any review
// @Description Change content, verification, status or notes. The editor is stamped as moderator.
// @Tags Admin Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param review body domain.AdminReviewEdit true "Fields to update"
// @Success 200 {object} map[string]interface{} "Review and rating refresh status"
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /admin/reviews/{id} [put]
func (h *ReviewHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	admin, ok := identity(w, r)
	if !ok {
		return
	}

	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var edit domain.AdminReviewEdit
	if err := request.DecodeJSON(r, &edit); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateByAdmin(r.Context(), id, admin.UserID, edit)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// AdminDelete handles DELETE /api/v1/admin/reviews/{id}
// @Summary Delete any review
// @Tags Admin Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Deleted review and rating refresh status"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /admin/reviews/{id} [delete]
func (h *ReviewHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	result, err := h.service.DeleteByAdmin(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// Import handles POST /api/v1/admin/reviews/import
// @Summary Bulk import reviews from CSV
// @Description Accepts a multipart "file" field or a raw text/csv body. Rows are validated independently.
// @Tags Admin Reviews
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file false "CSV file"
// @Success 200 {object} review.ImportReport "Per-row import report"
// @Failure 400 {object} map[string]string "Unreadable file or header"
// @Router /admin/reviews/import [post]
func (h *ReviewHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, closeBody, err := csvUpload(w, r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "CSV file required")
		return
	}
	defer closeBody()

	report, err := h.service.Import(r.Context(), body)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, report)
}

// Export handles GET /api/v1/admin/reviews/export
// @Summary Export reviews as CSV
// @Tags Admin Reviews
// @Produce text/csv
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param product_id query string false "Product ID"
// @Param user_id query string false "Author ID"
// @Success 200 {file} file "reviews.csv"
// @Router /admin/reviews/export [get]
func (h *ReviewHandler) Export(w http.ResponseWriter, r *http.Request) {
	opts, ok := adminListOptions(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.service.Export(r.Context(), opts, &buf); err != nil {
		h.handleError(w, err)
		return
	}

	response.CSV(w, "reviews.csv", buf.Bytes())
}

func adminListOptions(w http.ResponseWriter, r *http.Request) (review.ListOptions, bool) {
	opts := listOptions(r)
	opts.UserID = r.URL.Query().Get("user_id")

	productID, err := request.GetUUIDQuery(r, "product_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return opts, false
	}
	opts.ProductID = productID
	return opts, true
}

// csvUpload returns the uploaded CSV from a multipart form or the raw body
func csvUpload(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, request.MaxUploadSize)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, func() { r.Body.Close() }, nil
	}

	if err := r.ParseMultipartForm(request.MaxUploadSize); err != nil {
		return nil, nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}
