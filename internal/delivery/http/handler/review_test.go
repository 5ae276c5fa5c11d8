package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/middleware"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/repository/cache"
	"github.com/Pesokrava/jewelry_catalog/internal/usecase/review"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Exists(ctx context.Context, userID, orderID string, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, orderID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) Update(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReviewRepository) UpdateVotes(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *MockReviewRepository) ReviewedProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockReviewCache is a mock implementation of review.Cache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetReviewPage(ctx context.Context, productID uuid.UUID, key cache.PageKey) (*cache.ReviewPage, error) {
	args := m.Called(ctx, productID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.ReviewPage), args.Error(1)
}

func (m *MockReviewCache) SetReviewPage(ctx context.Context, productID uuid.UUID, key cache.PageKey, page *cache.ReviewPage) error {
	args := m.Called(ctx, productID, key, page)
	return args.Error(0)
}

func (m *MockReviewCache) GetReviewStats(ctx context.Context, productID uuid.UUID) (*domain.RatingStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingStats), args.Error(1)
}

func (m *MockReviewCache) SetReviewStats(ctx context.Context, productID uuid.UUID, stats *domain.RatingStats) error {
	args := m.Called(ctx, productID, stats)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of review.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// MockRatingRefresher is a mock implementation of review.RatingRefresher
type MockRatingRefresher struct {
	mock.Mock
}

func (m *MockRatingRefresher) Recompute(ctx context.Context, itemID uuid.UUID) domain.RefreshStatus {
	args := m.Called(ctx, itemID)
	return args.Get(0).(domain.RefreshStatus)
}

type reviewFixture struct {
	repo    *MockReviewRepository
	cache   *MockReviewCache
	ratings *MockRatingRefresher
	handler *ReviewHandler
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		repo:    new(MockReviewRepository),
		cache:   new(MockReviewCache),
		ratings: new(MockRatingRefresher),
	}
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil).Maybe()

	log := logger.New("test")
	service := review.NewService(f.repo, f.cache, publisher, f.ratings, "reviews.events", log)
	f.handler = NewReviewHandler(service, log)
	return f
}

var shopper = middleware.Identity{
	UserID:    "user-1",
	Email:     "ada@example.com",
	FirstName: "Ada",
	LastName:  "Lovelace",
	Role:      "customer",
}

// withRoute attaches an identity and chi URL params to req
func withRoute(req *http.Request, id *middleware.Identity, params map[string]string) *http.Request {
	ctx := req.Context()
	if id != nil {
		ctx = middleware.WithIdentity(ctx, *id)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func storedReview(productID uuid.UUID, userID string) *domain.Review {
	return &domain.Review{
		ID:           uuid.New(),
		UserID:       userID,
		UserName:     "Ada Lovelace",
		UserEmail:    "ada@example.com",
		ProductID:    productID,
		ProductTitle: "Silver Ring",
		OrderID:      "order-1",
		Rating:       4,
		Title:        "Lovely",
		Comment:      "Fits well",
		Images:       []string{},
		Status:       domain.ReviewApproved,
		HelpfulVotes: []domain.HelpfulVote{},
	}
}

func TestReviewHandler_Create_Success(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()

	f.repo.On("Exists", mock.Anything, "user-1", "order-1", productID).Return(false, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.UserName == "Ada Lovelace" && r.UserEmail == "ada@example.com" && r.Status == domain.ReviewPending
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Review).ID = uuid.New()
	}).Return(nil)
	f.cache.On("InvalidateProduct", mock.Anything, productID).Return(nil)
	f.ratings.On("Recompute", mock.Anything, productID).Return(domain.RefreshOK)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", jsonBody(t, CreateReviewRequest{
		ProductID:    productID.String(),
		ProductTitle: "Silver Ring",
		OrderID:      "order-1",
		Rating:       5,
		Title:        "Beautiful",
		Comment:      "Exactly as pictured",
	}))
	w := httptest.NewRecorder()

	f.handler.Create(w, withRoute(req, &shopper, nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, string(domain.RefreshOK), data["rating_refresh"])
	created := data["review"].(map[string]interface{})
	assert.Equal(t, "user-1", created["user_id"])
	assert.Equal(t, true, created["is_verified_purchase"])
	f.repo.AssertExpectations(t)
}

func TestReviewHandler_Create_Unauthenticated(t *testing.T) {
	f := newReviewFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	f.handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewHandler_Create_Duplicate(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()

	f.repo.On("Exists", mock.Anything, "user-1", "order-1", productID).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", jsonBody(t, CreateReviewRequest{
		ProductID:    productID.String(),
		ProductTitle: "Silver Ring",
		OrderID:      "order-1",
		Rating:       5,
		Title:        "Again",
		Comment:      "Second try",
	}))
	w := httptest.NewRecorder()

	f.handler.Create(w, withRoute(req, &shopper, nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "you have already reviewed this product for this order", decodeBody(t, w)["error"])
}

func TestReviewHandler_Create_InvalidRating(t *testing.T) {
	f := newReviewFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", jsonBody(t, CreateReviewRequest{
		ProductID:    uuid.New().String(),
		ProductTitle: "Silver Ring",
		OrderID:      "order-1",
		Rating:       9,
		Title:        "Too good",
		Comment:      "Off the scale",
	}))
	w := httptest.NewRecorder()

	f.handler.Create(w, withRoute(req, &shopper, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Rating")
}

func TestReviewHandler_ListByProduct_Pagination(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()
	reviews := []*domain.Review{storedReview(productID, "user-2")}

	f.cache.On("GetReviewPage", mock.Anything, productID, mock.Anything).Return(nil, errors.New("cache miss"))
	f.repo.On("List", mock.Anything, mock.MatchedBy(func(filter domain.ReviewFilter) bool {
		return filter.Status == domain.ReviewApproved && filter.Limit == 5 && filter.Offset == 5
	})).Return(reviews, 11, nil)
	f.cache.On("SetReviewPage", mock.Anything, productID, mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/product/"+productID.String()+"?page=2&page_size=5", nil)
	w := httptest.NewRecorder()

	f.handler.ListByProduct(w, withRoute(req, nil, map[string]string{"productId": productID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	pagination := decodeBody(t, w)["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(11), pagination["total"])
	assert.Equal(t, float64(3), pagination["total_pages"])
}

func TestReviewHandler_ListByProduct_InvalidStatus(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/product/"+productID.String()+"?status=hidden", nil)
	w := httptest.NewRecorder()

	f.handler.ListByProduct(w, withRoute(req, nil, map[string]string{"productId": productID.String()}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Update_NotAuthor(t *testing.T) {
	f := newReviewFixture()
	existing := storedReview(uuid.New(), "someone-else")

	f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	rating := 1
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reviews/"+existing.ID.String(), jsonBody(t, UpdateReviewRequest{Rating: &rating}))
	w := httptest.NewRecorder()

	f.handler.Update(w, withRoute(req, &shopper, map[string]string{"id": existing.ID.String()}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewHandler_Vote_InvalidType(t *testing.T) {
	f := newReviewFixture()
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/"+id.String()+"/vote", jsonBody(t, VoteRequest{Vote: "love"}))
	w := httptest.NewRecorder()

	f.handler.Vote(w, withRoute(req, &shopper, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "vote must be helpful or notHelpful", decodeBody(t, w)["error"])
}

func TestReviewHandler_Vote_Added(t *testing.T) {
	f := newReviewFixture()
	existing := storedReview(uuid.New(), "someone-else")

	f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	f.repo.On("UpdateVotes", mock.Anything, existing).Return(nil)
	f.cache.On("InvalidateProduct", mock.Anything, existing.ProductID).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/"+existing.ID.String()+"/vote", jsonBody(t, VoteRequest{Vote: "helpful"}))
	w := httptest.NewRecorder()

	f.handler.Vote(w, withRoute(req, &shopper, map[string]string{"id": existing.ID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, string(domain.VoteAdded), data["action"])
	assert.Equal(t, float64(1), data["helpful_count"])
	f.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestReviewHandler_CanReview_MissingProduct(t *testing.T) {
	f := newReviewFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/can-review?order_id=order-1", nil)
	w := httptest.NewRecorder()

	f.handler.CanReview(w, withRoute(req, &shopper, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Reject_RequiresReason(t *testing.T) {
	f := newReviewFixture()
	id := uuid.New()
	admin := middleware.Identity{UserID: "admin-1", Role: "admin"}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/reviews/"+id.String()+"/reject", jsonBody(t, RejectRequest{Reason: "  "}))
	w := httptest.NewRecorder()

	f.handler.Reject(w, withRoute(req, &admin, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rejection reason is required", decodeBody(t, w)["error"])
}

func TestReviewHandler_Approve_Success(t *testing.T) {
	f := newReviewFixture()
	existing := storedReview(uuid.New(), "user-2")
	existing.Status = domain.ReviewPending
	existing.AdminNotes = "blurry photo"
	admin := middleware.Identity{UserID: "admin-1", Role: "admin"}

	f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	f.repo.On("Update", mock.Anything, existing).Return(nil)
	f.cache.On("InvalidateProduct", mock.Anything, existing.ProductID).Return(nil)
	f.ratings.On("Recompute", mock.Anything, existing.ProductID).Return(domain.RefreshOK)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/reviews/"+existing.ID.String()+"/approve", nil)
	w := httptest.NewRecorder()

	f.handler.Approve(w, withRoute(req, &admin, map[string]string{"id": existing.ID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ReviewApproved, existing.Status)
	assert.Equal(t, "admin-1", existing.ModeratedBy)
	assert.Empty(t, existing.AdminNotes)
}

func TestReviewHandler_AdminDelete_NotFound(t *testing.T) {
	f := newReviewFixture()
	id := uuid.New()

	f.repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/reviews/"+id.String(), nil)
	w := httptest.NewRecorder()

	f.handler.AdminDelete(w, withRoute(req, nil, map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Review not found", decodeBody(t, w)["error"])
}

func TestReviewHandler_Import_RawBody(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()
	csvBody := "user_id,user_name,user_email,product_id,product_title,order_id,rating,title,comment\n" +
		"u1,Ann,ann@example.com," + productID.String() + ",Ring,o1,5,Great,Shiny\n" +
		"u2,Bob,bob@example.com,not-a-uuid,Ring,o2,4,Nice,Solid\n"

	f.repo.On("Exists", mock.Anything, "u1", "o1", productID).Return(false, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("InvalidateProduct", mock.Anything, productID).Return(nil)
	f.ratings.On("Recompute", mock.Anything, productID).Return(domain.RefreshOK)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reviews/import", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()

	f.handler.Import(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["success"])
	assert.Equal(t, float64(1), data["failed"])
	f.ratings.AssertNumberOfCalls(t, "Recompute", 1)
}

func TestReviewHandler_Import_MissingColumn(t *testing.T) {
	f := newReviewFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reviews/import", strings.NewReader("user_id,rating\nu1,5\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()

	f.handler.Import(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSV is missing required column product_id", decodeBody(t, w)["error"])
}

func TestReviewHandler_Export_CSV(t *testing.T) {
	f := newReviewFixture()
	productID := uuid.New()

	f.repo.On("List", mock.Anything, mock.MatchedBy(func(filter domain.ReviewFilter) bool {
		return filter.ProductID != nil && *filter.ProductID == productID && filter.Limit == 0
	})).Return([]*domain.Review{storedReview(productID, "user-2")}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reviews/export?product_id="+productID.String(), nil)
	w := httptest.NewRecorder()

	f.handler.Export(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reviews.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,user_id,user_name"))
}
