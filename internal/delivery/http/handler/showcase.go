package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/showcase"
)

// ShowcaseHandler serves the derived merchandising views
type ShowcaseHandler struct {
	service *showcase.Service
	logger  *logger.Logger
}

// NewShowcaseHandler creates a new showcase handler
func NewShowcaseHandler(service *showcase.Service, log *logger.Logger) *ShowcaseHandler {
	return &ShowcaseHandler{
		service: service,
		logger:  log,
	}
}

// BestSellers handles GET /api/v1/showcase/best-sellers
// @Summary Best sellers
// @Description Catalog items and products with sales, most sold first
// @Tags Showcase
// @Produce json
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Ranked items"
// @Router /showcase/best-sellers [get]
func (h *ShowcaseHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.BestSellers(r.Context(), request.GetIntQuery(r, "limit", 0))
	h.respond(w, entries, err)
}

// TopRated handles GET /api/v1/showcase/top-rated
// @Summary Top rated
// @Description Reviewed items rated at least min_rating, best first
// @Tags Showcase
// @Produce json
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Param min_rating query number false "Minimum rating" default(4.0)
// @Success 200 {object} map[string]interface{} "Ranked items"
// @Failure 400 {object} map[string]string "Invalid min_rating"
// @Router /showcase/top-rated [get]
func (h *ShowcaseHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	minRating, err := request.GetFloatQuery(r, "min_rating")
	if err != nil {
		h.handleError(w, domain.Invalidf("%v", err))
		return
	}
	var threshold float64
	if minRating != nil {
		threshold = *minRating
	}

	entries, err := h.service.TopRated(r.Context(), request.GetIntQuery(r, "limit", 0), threshold)
	h.respond(w, entries, err)
}

// Trending handles GET /api/v1/showcase/trending
// @Summary Trending items
// @Description Catalog items trend on sales, products on their trending flag
// @Tags Showcase
// @Produce json
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Ranked items"
// @Router /showcase/trending [get]
func (h *ShowcaseHandler) Trending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Trending(r.Context(), request.GetIntQuery(r, "limit", 0))
	h.respond(w, entries, err)
}

// TrendingByCollection handles GET /api/v1/showcase/trending/by-collection
// @Summary Trending products per collection
// @Description Up to four trending products for every collection that has any
// @Tags Showcase
// @Produce json
// @Success 200 {object} map[string]interface{} "Collections with products"
// @Router /showcase/trending/by-collection [get]
func (h *ShowcaseHandler) TrendingByCollection(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.TrendingByCollection(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, groups)
}

// NewArrivals handles GET /api/v1/showcase/new-arrivals
// @Summary New arrivals
// @Description Items created within the arrival window, newest first
// @Tags Showcase
// @Produce json
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Ranked items"
// @Router /showcase/new-arrivals [get]
func (h *ShowcaseHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.NewArrivals(r.Context(), request.GetIntQuery(r, "limit", 0))
	h.respond(w, entries, err)
}

// FeaturedBrands handles GET /api/v1/showcase/brands
// @Summary Featured brands
// @Description Featured items, newest first
// @Tags Showcase
// @Produce json
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Featured items"
// @Router /showcase/brands [get]
func (h *ShowcaseHandler) FeaturedBrands(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.FeaturedBrands(r.Context(), request.GetIntQuery(r, "limit", 0))
	h.respond(w, entries, err)
}

// ByBrand handles GET /api/v1/showcase/brands/{brand}
// @Summary Items of a brand
// @Tags Showcase
// @Produce json
// @Param brand path string true "Brand name"
// @Param limit query int false "Maximum items (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Items of the brand"
// @Router /showcase/brands/{brand} [get]
func (h *ShowcaseHandler) ByBrand(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ByBrand(r.Context(), chi.URLParam(r, "brand"), request.GetIntQuery(r, "limit", 0))
	h.respond(w, entries, err)
}

func (h *ShowcaseHandler) respond(w http.ResponseWriter, entries []domain.ShowcaseEntry, err error) {
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.Success(w, entries)
}

func (h *ShowcaseHandler) handleError(w http.ResponseWriter, err error) {
	writeError(w, h.logger, err, "Not found")
}
