package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/config"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/showcase"
)

var signingKey = []byte("router-test-key")

type emptySource struct{}

func (emptySource) Showcase(ctx context.Context, q domain.ShowcaseQuery) ([]domain.SellableItem, error) {
	return nil, nil
}

func newTestRouter() http.Handler {
	log := logger.New("test")
	cfg := &config.Config{Server: config.ServerConfig{RequestTimeout: 5 * time.Second, AllowedOrigins: []string{"*"}}}
	auth := middleware.NewAuth(func(*jwt.Token) (interface{}, error) { return signingKey, nil }, []string{"HS256"}, "admin", log)

	svc := showcase.NewService([]domain.ItemSource{emptySource{}}, emptySource{}, nil, showcase.Options{}, log)
	handlers := Handlers{Showcase: handler.NewShowcaseHandler(svc, log)}

	return NewRouter(handlers, auth, cfg, log).Setup()
}

func token(t *testing.T, role string) string {
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return s
}

func TestRouter_HealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRouter_PublicShowcase(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/showcase/best-sellers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestRouter_AdminRoutes(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		status int
	}{
		{name: "no token", status: http.StatusUnauthorized},
		{name: "customer", role: "customer", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reviews", nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+token(t, tt.role))
			}
			w := httptest.NewRecorder()

			newTestRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRouter_ReviewWriteRequiresToken(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
