package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/jewelry_catalog/internal/delivery/http"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/cache"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/database"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/mongodb"
	cacheRepo "github.com/Pesokrava/jewelry_catalog/internal/repository/cache"
	mongoRepo "github.com/Pesokrava/jewelry_catalog/internal/repository/mongo"
	"github.com/Pesokrava/jewelry_catalog/internal/repository/postgres"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/catalog"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/category"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/product"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/rating"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/review"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/showcase"

	_ "github.com/Pesokrava/jewelry_catalog/docs"
)

// @title Jewelry Catalog API
// @version 1.0
// @description Jewelry catalog with a three-level category tree, moderated product reviews and storefront showcases.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/jewelry_catalog
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Categories
// @tag.description Category tree management and hierarchy queries

// @tag.name Catalog
// @tag.description Catalog item management

// @tag.name Products
// @tag.description Collections and products

// @tag.name Reviews
// @tag.description Review submission, voting and moderation

// @tag.name Showcase
// @tag.description Storefront showcase listings

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.ForService(cfg.Env, "api")
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Jewelry Catalog API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to apply migrations", err)
	}
	appLogger.Info("Connected to PostgreSQL successfully")

	appLogger.Info("Connecting to MongoDB...")
	mongoClient, err := mongodb.WaitForMongo(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			appLogger.Error("Failed to disconnect from MongoDB", err)
		}
	}()

	reviewRepo := mongoRepo.NewReviewRepository(mongoClient.Database(cfg.Mongo.Database).Collection(mongoRepo.CollectionName))
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	if err := reviewRepo.EnsureIndexes(indexCtx); err != nil {
		cancelIndex()
		appLogger.Fatal("Failed to create review indexes", err)
	}
	cancelIndex()
	appLogger.Info("Connected to MongoDB successfully")

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Infof("Connecting to event broker (%s)...", cfg.Events.Broker)
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create event publisher", err)
	}
	defer publisher.Close()

	jwks, err := keyfunc.Get(cfg.Auth.JWKSURL, keyfunc.Options{
		RefreshInterval: cfg.Auth.RefreshInterval,
		RefreshErrorHandler: func(err error) {
			appLogger.Error("Failed to refresh JWKS", err)
		},
		RefreshUnknownKID: true,
	})
	if err != nil {
		appLogger.Fatal("Failed to load JWKS", err)
	}
	defer jwks.EndBackground()

	categoryRepo := postgres.NewCategoryRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	collectionRepo := postgres.NewCollectionRepository(db)
	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(redisClient, cacheRepo.TTLs{
		ReviewsList: cfg.Cache.ReviewsListTTL,
		ReviewStats: cfg.Cache.ReviewStatsTTL,
		Hierarchy:   cfg.Cache.HierarchyTTL,
	})

	categoryService := category.NewService(categoryRepo, catalogRepo, redisCache, appLogger.With("component", "category"))
	catalogService := catalog.NewService(catalogRepo, categoryService, redisCache, appLogger.With("component", "catalog"))
	productService := product.NewService(productRepo, collectionRepo, appLogger.With("component", "product"))
	aggregator := rating.NewAggregator(reviewRepo, redisCache, appLogger.With("component", "rating"), catalogRepo, productRepo)
	reviewService := review.NewService(reviewRepo, redisCache, publisher, aggregator, cfg.Events.Subject, appLogger.With("component", "review"))
	showcaseService := showcase.NewService(
		[]domain.ItemSource{catalogRepo, productRepo},
		productRepo,
		collectionRepo,
		showcase.Options{
			DefaultLimit:     cfg.Showcase.DefaultLimit,
			NewArrivalWindow: cfg.Showcase.NewArrivalWindow,
			TopRatedMin:      cfg.Showcase.TopRatedMin,
		},
		appLogger.With("component", "showcase"),
	)

	handlers := httpDelivery.Handlers{
		Category: handler.NewCategoryHandler(categoryService, appLogger),
		Catalog:  handler.NewCatalogHandler(catalogService, appLogger),
		Product:  handler.NewProductHandler(productService, appLogger),
		Review:   handler.NewReviewHandler(reviewService, appLogger),
		Showcase: handler.NewShowcaseHandler(showcaseService, appLogger),
	}
	auth := middleware.NewAuth(jwks.Keyfunc, cfg.Auth.SigningMethods, cfg.Auth.AdminRole, appLogger)

	router := httpDelivery.NewRouter(handlers, auth, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
