package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/events"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/cache"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/database"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/mongodb"
	cacheRepo "github.com/Pesokrava/jewelry_catalog/internal/repository/cache"
	mongoRepo "github.com/Pesokrava/jewelry_catalog/internal/repository/mongo"
	"github.com/Pesokrava/jewelry_catalog/internal/repository/postgres"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/category"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/rating"
	"github.com/Pesokrava/jewelry_catalog/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.ForService(cfg.Env, "rating-worker")
	appLogger.Info("Starting rating worker...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to database")

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

	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	reviewRepo := mongoRepo.NewReviewRepository(mongoClient.Database(cfg.Mongo.Database).Collection(mongoRepo.CollectionName))
	catalogRepo := postgres.NewCatalogRepository(db)
	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(redisClient, cacheRepo.TTLs{
		ReviewsList: cfg.Cache.ReviewsListTTL,
		ReviewStats: cfg.Cache.ReviewStatsTTL,
		Hierarchy:   cfg.Cache.HierarchyTTL,
	})

	aggregator := rating.NewAggregator(reviewRepo, redisCache, appLogger.With("component", "rating"), catalogRepo, productRepo)
	categoryService := category.NewService(postgres.NewCategoryRepository(db), catalogRepo, redisCache, appLogger.With("component", "category"))

	reconciler := worker.NewReconciler(aggregator, categoryService, appLogger.With("component", "reconciler"))
	if err := reconciler.Start(cfg.Worker.ReconcileSchedule); err != nil {
		appLogger.Fatal("Failed to schedule reconciliation", err)
	}

	ratingWorker := worker.NewRatingWorker(aggregator, cfg.Worker.DebounceWindow, appLogger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	consumerDone := make(chan struct{})
	switch cfg.Events.Broker {
	case events.BrokerKafka:
		consumer := events.NewKafkaConsumer(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, events.ConsumerName, appLogger)
		defer consumer.Close()

		go func() {
			defer close(consumerDone)
			consumer.Run(ctx, ratingWorker.HandleEvent)
		}()
	case events.BrokerNone:
		appLogger.Warn("Event broker disabled, relying on scheduled reconciliation")
		close(consumerDone)
	default:
		appLogger.Info("Connecting to NATS JetStream...")
		nc, err := nats.Connect(cfg.Events.NATSURL)
		if err != nil {
			appLogger.Fatal("Failed to connect to NATS", err)
		}
		defer nc.Close()

		js, err := nc.JetStream()
		if err != nil {
			appLogger.Fatal("Failed to create JetStream context", err)
		}

		if err := events.NewProvisioner(js, cfg.Events.Subject, appLogger).Ensure(); err != nil {
			appLogger.Fatal("Failed to provision JetStream", err)
		}

		consumer, err := events.NewPullConsumer(js, cfg.Events.Subject, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to subscribe to review events", err)
		}
		defer consumer.Close()

		go func() {
			defer close(consumerDone)
			consumer.Run(ctx, ratingWorker.HandleEvent)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stop()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
	}

	if err := ratingWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}
	reconciler.Stop(shutdownCtx)

	appLogger.Info("Rating worker stopped")
}
