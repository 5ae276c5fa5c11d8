package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
	domain.ProductRepository
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) IncrementSales(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

// MockCollectionRepository is a mock implementation of domain.CollectionRepository
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Create(ctx context.Context, collection *domain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collection), args.Error(1)
}

func (m *MockCollectionRepository) List(ctx context.Context) ([]*domain.Collection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Collection), args.Error(1)
}

func (m *MockCollectionRepository) Update(ctx context.Context, collection *domain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newService() (*Service, *MockProductRepository, *MockCollectionRepository) {
	repo := new(MockProductRepository)
	collections := new(MockCollectionRepository)
	return NewService(repo, collections, logger.New("test")), repo, collections
}

func TestService_Create_Success(t *testing.T) {
	service, repo, collections := newService()
	collection := &domain.Collection{ID: uuid.New(), Name: "Bridal"}
	product := &domain.Product{
		CollectionID: collection.ID,
		Title:        "Pearl Pendant",
		Price:        240,
		Rating:       5,
	}

	collections.On("GetByID", mock.Anything, collection.ID).Return(collection, nil)
	repo.On("Create", mock.Anything, product).Return(nil)

	err := service.Create(context.Background(), product)

	assert.NoError(t, err)
	assert.Zero(t, product.Rating)
	repo.AssertExpectations(t)
}

func TestService_Create_UnknownCollection(t *testing.T) {
	service, repo, collections := newService()
	product := &domain.Product{CollectionID: uuid.New(), Title: "Pearl Pendant", Price: 240}

	collections.On("GetByID", mock.Anything, product.CollectionID).Return(nil, domain.ErrNotFound)

	err := service.Create(context.Background(), product)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_InvalidInput(t *testing.T) {
	service, repo, _ := newService()

	err := service.Create(context.Background(), &domain.Product{CollectionID: uuid.New(), Price: -1})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_GetByID_NotFound(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	product, err := service.GetByID(context.Background(), id)

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ListByCollection(t *testing.T) {
	service, repo, collections := newService()
	collectionID := uuid.New()
	products := []*domain.Product{{ID: uuid.New(), CollectionID: collectionID}}

	collections.On("GetByID", mock.Anything, collectionID).Return(&domain.Collection{ID: collectionID}, nil)
	repo.On("List", mock.Anything, domain.ItemFilter{CollectionID: &collectionID, Limit: 20}).Return(products, 1, nil)

	got, total, err := service.ListByCollection(context.Background(), collectionID, domain.ItemFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, products, got)
}

func TestService_ListByCollection_MissingCollection(t *testing.T) {
	service, repo, collections := newService()
	collectionID := uuid.New()

	collections.On("GetByID", mock.Anything, collectionID).Return(nil, domain.ErrNotFound)

	_, _, err := service.ListByCollection(context.Background(), collectionID, domain.ItemFilter{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestService_Update_MovesCollection(t *testing.T) {
	service, repo, collections := newService()
	product := &domain.Product{ID: uuid.New(), CollectionID: uuid.New(), Title: "Cuff", Price: 80}
	target := uuid.New()
	trending := true

	repo.On("GetByID", mock.Anything, product.ID).Return(product, nil)
	collections.On("GetByID", mock.Anything, target).Return(&domain.Collection{ID: target}, nil)
	repo.On("Update", mock.Anything, product).Return(nil)

	updated, err := service.Update(context.Background(), product.ID, domain.ProductPatch{CollectionID: &target, IsTrending: &trending})

	require.NoError(t, err)
	assert.Equal(t, target, updated.CollectionID)
	assert.True(t, updated.IsTrending)
}

func TestService_IncrementSales(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()

	repo.On("IncrementSales", mock.Anything, id, 2).Return(7, nil)

	sales, err := service.IncrementSales(context.Background(), id, 2)

	require.NoError(t, err)
	assert.Equal(t, 7, sales)

	_, err = service.IncrementSales(context.Background(), id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_AdjustStock_FloorsAtZero(t *testing.T) {
	service, repo, _ := newService()
	id := uuid.New()

	repo.On("AdjustStock", mock.Anything, id, -5).Return(0, nil)

	stock, err := service.AdjustStock(context.Background(), id, -5)

	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestService_CreateCollection(t *testing.T) {
	service, _, collections := newService()
	collection := &domain.Collection{Name: "Heritage"}

	collections.On("Create", mock.Anything, collection).Return(nil)

	assert.NoError(t, service.CreateCollection(context.Background(), collection))
	assert.ErrorIs(t, service.CreateCollection(context.Background(), &domain.Collection{}), domain.ErrInvalidInput)
}

func TestService_DeleteCollection_NotFound(t *testing.T) {
	service, _, collections := newService()
	id := uuid.New()

	collections.On("Delete", mock.Anything, id).Return(domain.ErrNotFound)

	assert.ErrorIs(t, service.DeleteCollection(context.Background(), id), domain.ErrNotFound)
}
