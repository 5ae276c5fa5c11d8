package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Category *handler.CategoryHandler
	Catalog  *handler.CatalogHandler
	Product  *handler.ProductHandler
	Review   *handler.ReviewHandler
	Showcase *handler.ShowcaseHandler
}

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	auth     *middleware.Auth
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(handlers Handlers, auth *middleware.Auth, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handlers: handlers,
		auth:     auth,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Metrics)
	r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		rt.categoryRoutes(r)
		rt.catalogRoutes(r)
		rt.productRoutes(r)
		rt.reviewRoutes(r)
		rt.showcaseRoutes(r)
	})

	return r
}

// admin wraps r with authentication and the administrator role check
func (rt *Router) admin(r chi.Router) chi.Router {
	return r.With(rt.auth.Authenticate, rt.auth.RequireAdmin)
}

func (rt *Router) categoryRoutes(r chi.Router) {
	h := rt.handlers.Category
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/hierarchy", h.Hierarchy)
		r.Get("/level/{level}", h.ListByLevel)
		r.Get("/{id}", h.GetByID)
		r.Get("/{id}/path", h.Path)
		r.Get("/{id}/items", h.Items)
		r.Get("/{id}/top-items", h.TopItems)

		admin := rt.admin(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
	})
}

func (rt *Router) catalogRoutes(r chi.Router) {
	h := rt.handlers.Catalog
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/hierarchy", rt.handlers.Category.CatalogHierarchy)
		r.Get("/{id}", h.GetByID)

		admin := rt.admin(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
		admin.Patch("/{id}/stock", h.AdjustStock)
		admin.Patch("/{id}/sales", h.IncrementSales)
	})
}

func (rt *Router) productRoutes(r chi.Router) {
	h := rt.handlers.Product
	r.Route("/collections", func(r chi.Router) {
		r.Get("/", h.ListCollections)
		r.Get("/{id}", h.GetCollection)
		r.Get("/{id}/products", h.ListByCollection)

		admin := rt.admin(r)
		admin.Post("/", h.CreateCollection)
		admin.Put("/{id}", h.UpdateCollection)
		admin.Delete("/{id}", h.DeleteCollection)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.GetByID)

		admin := rt.admin(r)
		admin.Post("/", h.Create)
		admin.Put("/{id}", h.Update)
		admin.Delete("/{id}", h.Delete)
		admin.Patch("/{id}/stock", h.AdjustStock)
		admin.Patch("/{id}/sales", h.IncrementSales)
	})
}

func (rt *Router) reviewRoutes(r chi.Router) {
	h := rt.handlers.Review
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/product/{productId}", h.ListByProduct)
		r.Get("/product/{productId}/stats", h.Stats)

		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Authenticate)
			r.Post("/", h.Create)
			r.Get("/mine", h.Mine)
			r.Get("/can-review", h.CanReview)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/vote", h.Vote)
		})
	})

	r.Route("/admin/reviews", func(r chi.Router) {
		r.Use(rt.auth.Authenticate, rt.auth.RequireAdmin)
		r.Get("/", h.AdminList)
		r.Get("/export", h.Export)
		r.Post("/import", h.Import)
		r.Put("/{id}", h.AdminUpdate)
		r.Delete("/{id}", h.AdminDelete)
		r.Patch("/{id}/approve", h.Approve)
		r.Patch("/{id}/reject", h.Reject)
	})
}

func (rt *Router) showcaseRoutes(r chi.Router) {
	h := rt.handlers.Showcase
	r.Route("/showcase", func(r chi.Router) {
		r.Get("/best-sellers", h.BestSellers)
		r.Get("/top-rated", h.TopRated)
		r.Get("/trending", h.Trending)
		r.Get("/trending/by-collection", h.TrendingByCollection)
		r.Get("/new-arrivals", h.NewArrivals)
		r.Get("/brands", h.FeaturedBrands)
		r.Get("/brands/{brand}", h.ByBrand)
	})
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
