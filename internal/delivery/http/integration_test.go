//go:build integration
// +build integration

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/events"
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
)

// setupTestServer wires the full stack against the services of docker-compose
func setupTestServer(t *testing.T) http.Handler {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Events.Broker = events.BrokerNone

	log := logger.New(cfg.Env)

	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	mongoClient, err := mongodb.WaitForMongo(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { mongoClient.Disconnect(context.Background()) })

	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })

	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)

	reviewRepo := mongoRepo.NewReviewRepository(mongoClient.Database(cfg.Mongo.Database).Collection(mongoRepo.CollectionName))
	require.NoError(t, reviewRepo.EnsureIndexes(context.Background()))

	categoryRepo := postgres.NewCategoryRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	collectionRepo := postgres.NewCollectionRepository(db)
	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(redisClient, cacheRepo.TTLs{
		ReviewsList: cfg.Cache.ReviewsListTTL,
		ReviewStats: cfg.Cache.ReviewStatsTTL,
		Hierarchy:   cfg.Cache.HierarchyTTL,
	})

	categoryService := category.NewService(categoryRepo, catalogRepo, redisCache, log)
	aggregator := rating.NewAggregator(reviewRepo, redisCache, log, catalogRepo, productRepo)
	handlers := Handlers{
		Category: handler.NewCategoryHandler(categoryService, log),
		Catalog:  handler.NewCatalogHandler(catalog.NewService(catalogRepo, categoryService, redisCache, log), log),
		Product:  handler.NewProductHandler(product.NewService(productRepo, collectionRepo, log), log),
		Review: handler.NewReviewHandler(
			review.NewService(reviewRepo, redisCache, publisher, aggregator, cfg.Events.Subject, log), log),
		Showcase: handler.NewShowcaseHandler(showcase.NewService(
			[]domain.ItemSource{catalogRepo, productRepo}, productRepo, collectionRepo, showcase.Options{}, log), log),
	}

	auth := middleware.NewAuth(func(*jwt.Token) (interface{}, error) { return signingKey, nil }, []string{"HS256"}, "admin", log)
	return NewRouter(handlers, auth, cfg, log).Setup()
}

func userToken(t *testing.T, subject, role string) string {
	claims := middleware.Claims{
		Email:     subject + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, server http.Handler, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func dataID(t *testing.T, body map[string]interface{}) string {
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	id, ok := data["id"].(string)
	require.True(t, ok, "data has no id: %v", data)
	return id
}

func createCategoryChain(t *testing.T, server http.Handler, admin string) string {
	suffix := uuid.NewString()[:8]

	status, body := call(t, server, http.MethodPost, "/api/v1/categories", admin, map[string]interface{}{
		"name": "Rings " + suffix, "level": "C1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	top := dataID(t, body)

	status, body = call(t, server, http.MethodPost, "/api/v1/categories", admin, map[string]interface{}{
		"name": "Gold " + suffix, "level": "C2", "parent_ids": []string{top},
	})
	require.Equal(t, http.StatusCreated, status, body)
	mid := dataID(t, body)

	status, body = call(t, server, http.MethodPost, "/api/v1/categories", admin, map[string]interface{}{
		"name": "Engagement " + suffix, "level": "C3", "parent_ids": []string{mid},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return dataID(t, body)
}

func TestCatalogItemUnderLeafCategory(t *testing.T) {
	server := setupTestServer(t)
	admin := userToken(t, "admin-1", "admin")
	leaf := createCategoryChain(t, server, admin)

	status, body := call(t, server, http.MethodPost, "/api/v1/catalog", admin, map[string]interface{}{
		"title":       "Solitaire Ring",
		"price":       1299.0,
		"stock":       3,
		"sku":         "SR-" + uuid.NewString()[:8],
		"category_id": leaf,
		"brand":       "Aurum",
	})
	require.Equal(t, http.StatusCreated, status, body)
	itemID := dataID(t, body)

	status, body = call(t, server, http.MethodGet, "/api/v1/catalog/"+itemID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, leaf, data["category_id"])
	assert.NotEmpty(t, data["mid_category_id"])
	assert.NotEmpty(t, data["top_category_id"])
}

func TestReviewModerationUpdatesStats(t *testing.T) {
	server := setupTestServer(t)
	admin := userToken(t, "admin-1", "admin")
	shopper := userToken(t, "shopper-"+uuid.NewString()[:8], "customer")
	productID := uuid.NewString()

	status, body := call(t, server, http.MethodPost, "/api/v1/reviews", shopper, map[string]interface{}{
		"product_id":    productID,
		"product_title": "Pearl Necklace",
		"order_id":      "order-1",
		"rating":        4,
		"title":         "Lovely",
		"comment":       "Beautiful lustre",
	})
	require.Equal(t, http.StatusCreated, status, body)
	reviewID := body["data"].(map[string]interface{})["review"].(map[string]interface{})["id"].(string)

	status, _ = call(t, server, http.MethodPost, "/api/v1/reviews", shopper, map[string]interface{}{
		"product_id":    productID,
		"product_title": "Pearl Necklace",
		"order_id":      "order-1",
		"rating":        5,
		"title":         "Again",
		"comment":       "Second try",
	})
	assert.Equal(t, http.StatusConflict, status)

	// pending reviews are not counted
	status, body = call(t, server, http.MethodGet, fmt.Sprintf("/api/v1/reviews/product/%s/stats", productID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["total_reviews"])

	status, body = call(t, server, http.MethodPatch, "/api/v1/admin/reviews/"+reviewID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, server, http.MethodGet, fmt.Sprintf("/api/v1/reviews/product/%s/stats", productID), "", nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total_reviews"])
	assert.Equal(t, 4.0, stats["average_rating"])
}
