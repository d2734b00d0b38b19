package productservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
	"fuzalog/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx domain.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx domain.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.Product, error) {
	args := m.Called(ctx, adjustment)
	return args.Get(0).(domain.Product), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

// --- Testes para GetProductByID ---

func TestGetProductByID_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	productID := uuid.New().String()
	expected := domain.Product{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 150}

	mockRepo.On("FindByID", mock.Anything, productID).Return(expected, nil)

	result, err := svc.GetProductByID(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, expected.ID, result.ID)
	mockRepo.AssertExpectations(t)
}

func TestGetProductByID_Fail_InvalidUUID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	_, err := svc.GetProductByID(context.Background(), "nao-e-uuid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID")
}

// --- Testes para ListProducts ---

func TestListProducts_AppliesFilterAndClassifiesStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	catalog := []domain.Product{
		{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 150},
		{ID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 40},
		{ID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 15},
	}
	mockRepo.On("FindAll", mock.Anything).Return(catalog, nil)

	views, err := svc.ListProducts(context.Background(), domain.ProductFilter{Category: domain.Category8kg})

	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, "Botijão 8kg (Cheio)", views[0].Name)
	assert.Equal(t, domain.StockStatusLow, views[0].StockStatus)
	mockRepo.AssertExpectations(t)
}

func TestListProducts_Fail_RepoError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	mockRepo.On("FindAll", mock.Anything).Return([]domain.Product(nil), errors.New("database connection failed"))

	_, err := svc.ListProducts(context.Background(), domain.ProductFilter{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- Testes para AdjustStock ---

func TestAdjustStock_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	adjustment := domain.StockAdjustmentRequest{ProductID: uuid.New().String(), Delta: -10}
	expected := domain.Product{ID: adjustment.ProductID, Name: "Botijão 13kg (Cheio)", Quantity: 140, Version: 2}

	mockStock.On("AdjustStock", mock.Anything, adjustment).Return(expected, nil)

	result, err := svc.AdjustStock(context.Background(), adjustment)

	assert.NoError(t, err)
	assert.Equal(t, 140, result.Quantity)
	assert.Equal(t, 2, result.Version)
	mockStock.AssertExpectations(t)
}

func TestAdjustStock_Fail_ZeroDelta(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	_, err := svc.AdjustStock(context.Background(), domain.StockAdjustmentRequest{ProductID: uuid.New().String(), Delta: 0})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockStock.AssertNotCalled(t, "AdjustStock")
}

func TestAdjustStock_Fail_RepoConflict(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockStock := new(MockStockRepository)
	svc := productservice.NewService(mockRepo, mockStock, newTestLogger())

	adjustment := domain.StockAdjustmentRequest{ProductID: uuid.New().String(), Delta: 5}
	conflict := apperror.NewConflictError("O produto foi modificado por outra operação. Tente novamente.")

	mockStock.On("AdjustStock", mock.Anything, adjustment).Return(domain.Product{}, conflict)

	_, err := svc.AdjustStock(context.Background(), adjustment)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockStock.AssertExpectations(t)
}
