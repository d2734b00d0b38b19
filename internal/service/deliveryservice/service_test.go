package deliveryservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
	"fuzalog/internal/service/deliveryservice"
)

// MockDeliveryRepository é uma implementação mock da interface domain.DeliveryRepository
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	args := m.Called(ctx, delivery, transactions)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByID(ctx domain.Context, id string) (domain.Delivery, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindAll(ctx domain.Context) ([]domain.Delivery, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) UpdateManifest(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	args := m.Called(ctx, delivery, transactions)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Finalize(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	args := m.Called(ctx, delivery, transactions)
	return args.Get(0).(domain.Delivery), args.Error(1)
}

// MockProductRepository é uma implementação mock da porta de consulta do pool
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx domain.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

// MockDirectoryRepository é uma implementação mock dos diretórios de referência
type MockDirectoryRepository struct {
	mock.Mock
}

func (m *MockDirectoryRepository) FindDeliveryPersonByID(ctx context.Context, id string) (domain.DeliveryPerson, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.DeliveryPerson), args.Error(1)
}

func (m *MockDirectoryRepository) FindVehicleByID(ctx context.Context, id string) (domain.Vehicle, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Vehicle), args.Error(1)
}

// MockUnitRepository é uma implementação mock da consulta de unidades
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) GetUnitByID(ctx context.Context, id string) (domain.Unit, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Unit), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

type serviceMocks struct {
	deliveryRepo *MockDeliveryRepository
	productRepo  *MockProductRepository
	directory    *MockDirectoryRepository
	unitRepo     *MockUnitRepository
}

func newTestService() (*deliveryservice.Service, serviceMocks) {
	mocks := serviceMocks{
		deliveryRepo: new(MockDeliveryRepository),
		productRepo:  new(MockProductRepository),
		directory:    new(MockDirectoryRepository),
		unitRepo:     new(MockUnitRepository),
	}
	svc := deliveryservice.NewService(mocks.deliveryRepo, mocks.productRepo, mocks.directory, mocks.unitRepo, newTestLogger())
	return svc, mocks
}

func seedDirectory(mocks serviceMocks) (domain.Unit, domain.DeliveryPerson, domain.Vehicle) {
	unit := domain.Unit{ID: uuid.New().String(), City: "Resende", District: "Campos Elíseos"}
	person := domain.DeliveryPerson{ID: uuid.New().String(), Name: "Carlos Silva", Initials: "CS"}
	vehicle := domain.Vehicle{ID: uuid.New().String(), Model: "Fiorino Branca", Plate: "KQV-2030"}

	mocks.unitRepo.On("GetUnitByID", mock.Anything, unit.ID).Return(unit, nil)
	mocks.directory.On("FindDeliveryPersonByID", mock.Anything, person.ID).Return(person, nil)
	mocks.directory.On("FindVehicleByID", mock.Anything, vehicle.ID).Return(vehicle, nil)

	return unit, person, vehicle
}

// --- Testes para CreateDelivery ---

func TestCreateDelivery_Success_DebitsPoolAtomically(t *testing.T) {
	svc, mocks := newTestService()
	unit, person, vehicle := seedDirectory(mocks)

	botijao := domain.Product{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 150}
	mocks.productRepo.On("FindByID", mock.Anything, botijao.ID).Return(botijao, nil)

	var captured []domain.StockTransaction
	mocks.deliveryRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]domain.StockTransaction)
		}).
		Return(domain.Delivery{ID: uuid.New().String(), Status: domain.StatusStartingRoute}, nil)

	req := deliveryservice.CreateDeliveryRequest{
		UnitID:           unit.ID,
		DeliveryPersonID: person.ID,
		VehicleID:        vehicle.ID,
		Items:            []deliveryservice.ItemSelection{{ProductID: botijao.ID, Quantity: 32}},
	}

	created, err := svc.CreateDelivery(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusStartingRoute, created.Status)

	assert.Len(t, captured, 1)
	assert.Equal(t, domain.TransactionDeliveryOut, captured[0].Kind)
	assert.Equal(t, 32, captured[0].Quantity)
	assert.Equal(t, unit.ID, captured[0].UnitID)
	mocks.deliveryRepo.AssertExpectations(t)
}

func TestCreateDelivery_QuantityClampedAtAvailableStock(t *testing.T) {
	svc, mocks := newTestService()
	unit, person, vehicle := seedDirectory(mocks)

	botijao := domain.Product{ID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 15}
	mocks.productRepo.On("FindByID", mock.Anything, botijao.ID).Return(botijao, nil)

	var capturedDelivery domain.Delivery
	mocks.deliveryRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedDelivery = args.Get(1).(domain.Delivery)
		}).
		Return(domain.Delivery{}, nil)

	req := deliveryservice.CreateDeliveryRequest{
		UnitID:           unit.ID,
		DeliveryPersonID: person.ID,
		VehicleID:        vehicle.ID,
		Items:            []deliveryservice.ItemSelection{{ProductID: botijao.ID, Quantity: 99}},
	}

	_, err := svc.CreateDelivery(context.Background(), req)

	assert.NoError(t, err)
	assert.Len(t, capturedDelivery.Products, 1)
	assert.Equal(t, 15, capturedDelivery.Products[0].Quantity)
}

func TestCreateDelivery_Fail_EmptyCart(t *testing.T) {
	svc, mocks := newTestService()

	req := deliveryservice.CreateDeliveryRequest{
		UnitID:           uuid.New().String(),
		DeliveryPersonID: uuid.New().String(),
		VehicleID:        uuid.New().String(),
	}

	_, err := svc.CreateDelivery(context.Background(), req)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mocks.deliveryRepo.AssertNotCalled(t, "Create")
}

func TestCreateDelivery_Fail_AllProductsOutOfStock(t *testing.T) {
	svc, mocks := newTestService()
	unit, person, vehicle := seedDirectory(mocks)

	esgotado := domain.Product{ID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 0}
	mocks.productRepo.On("FindByID", mock.Anything, esgotado.ID).Return(esgotado, nil)

	req := deliveryservice.CreateDeliveryRequest{
		UnitID:           unit.ID,
		DeliveryPersonID: person.ID,
		VehicleID:        vehicle.ID,
		Items:            []deliveryservice.ItemSelection{{ProductID: esgotado.ID, Quantity: 5}},
	}

	_, err := svc.CreateDelivery(context.Background(), req)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mocks.deliveryRepo.AssertNotCalled(t, "Create")
}

// --- Testes para EditDelivery ---

func TestEditDelivery_TransferAndNewItemProduceTransactions(t *testing.T) {
	svc, mocks := newTestService()

	original := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	delivery := domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String(), City: "Resende", District: "Campos Elíseos"},
		Products: []domain.DeliveryProduct{original},
	}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)

	novo := domain.Product{ID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 40}
	mocks.productRepo.On("FindByID", mock.Anything, novo.ID).Return(novo, nil)

	var captured []domain.StockTransaction
	mocks.deliveryRepo.On("UpdateManifest", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]domain.StockTransaction)
		}).
		Return(delivery, nil)

	req := deliveryservice.EditDeliveryRequest{
		Transfers: map[string]int{original.ID: 12},
		NewItems:  []deliveryservice.ItemSelection{{ProductID: novo.ID, Quantity: 4}},
	}

	_, err := svc.EditDelivery(context.Background(), delivery.ID, req)

	assert.NoError(t, err)
	assert.Len(t, captured, 2)

	byKind := map[domain.TransactionKind]domain.StockTransaction{}
	for _, txn := range captured {
		byKind[txn.Kind] = txn
		assert.Equal(t, delivery.Unit.ID, txn.UnitID)
	}
	assert.Equal(t, 12, byKind[domain.TransactionTransferIn].Quantity)
	assert.Equal(t, 4, byKind[domain.TransactionDeliveryOut].Quantity)
}

func TestEditDelivery_Fail_FinalizedDelivery(t *testing.T) {
	svc, mocks := newTestService()

	delivery := domain.Delivery{ID: uuid.New().String(), Status: domain.StatusFinalized}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)

	_, err := svc.EditDelivery(context.Background(), delivery.ID, deliveryservice.EditDeliveryRequest{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
	mocks.deliveryRepo.AssertNotCalled(t, "UpdateManifest")
}

// --- Testes para FinalizeDelivery ---

func TestFinalizeDelivery_ReconcilesReturnsAndSurplus(t *testing.T) {
	svc, mocks := newTestService()

	original := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32}
	delivery := domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String(), City: "Resende", District: "Campos Elíseos"},
		Products: []domain.DeliveryProduct{original},
	}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)

	excedente := domain.Product{ID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 15}
	mocks.productRepo.On("FindByID", mock.Anything, excedente.ID).Return(excedente, nil)

	finalized := delivery
	finalized.Status = domain.StatusFinalized

	var captured []domain.StockTransaction
	mocks.deliveryRepo.On("Finalize", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]domain.StockTransaction)
		}).
		Return(finalized, nil)

	req := deliveryservice.FinalizeDeliveryRequest{
		Returns: []deliveryservice.ReturnInput{{ProductID: original.ID, Returned: 12}},
		Surplus: []deliveryservice.SurplusInput{{ProductID: excedente.ID, Quantity: 8}},
	}

	result, err := svc.FinalizeDelivery(context.Background(), delivery.ID, req)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusFinalized, result.Delivery.Status)
	assert.Len(t, result.Movements, 2)

	// 12 retornados + 20 vendidos do original, 8 retornados do excedente.
	assert.Len(t, captured, 3)
	totalByKind := map[domain.TransactionKind]int{}
	for _, txn := range captured {
		totalByKind[txn.Kind] += txn.Quantity
	}
	assert.Equal(t, 20, totalByKind[domain.TransactionSale])
	assert.Equal(t, 12+8, totalByKind[domain.TransactionReturnIn])
}

func TestFinalizeDelivery_LineWithoutReturnCountsAsFullySold(t *testing.T) {
	svc, mocks := newTestService()

	comRetorno := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32}
	semRetorno := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 6}
	delivery := domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String()},
		Products: []domain.DeliveryProduct{comRetorno, semRetorno},
	}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)

	var captured []domain.StockTransaction
	mocks.deliveryRepo.On("Finalize", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]domain.StockTransaction)
		}).
		Return(delivery, nil)

	req := deliveryservice.FinalizeDeliveryRequest{
		Returns: []deliveryservice.ReturnInput{{ProductID: comRetorno.ID, Returned: 12}},
	}

	result, err := svc.FinalizeDelivery(context.Background(), delivery.ID, req)

	assert.NoError(t, err)
	assert.Len(t, result.Movements, 2)

	byID := map[string]domain.ProductMovement{}
	for _, m := range result.Movements {
		byID[m.ID] = m
	}
	assert.Equal(t, 12, byID[comRetorno.ID].Returned)
	assert.Equal(t, 20, byID[comRetorno.ID].Sold)
	// A linha omitida do payload fecha como totalmente vendida.
	assert.Equal(t, 0, byID[semRetorno.ID].Returned)
	assert.Equal(t, 6, byID[semRetorno.ID].Sold)

	totalByKind := map[domain.TransactionKind]int{}
	for _, txn := range captured {
		totalByKind[txn.Kind] += txn.Quantity
	}
	assert.Equal(t, 20+6, totalByKind[domain.TransactionSale])
	assert.Equal(t, 12, totalByKind[domain.TransactionReturnIn])
}

func TestFinalizeDelivery_ReturnedAboveInitialLeavesMovementUnchanged(t *testing.T) {
	svc, mocks := newTestService()

	original := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32}
	delivery := domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String()},
		Products: []domain.DeliveryProduct{original},
	}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)
	mocks.deliveryRepo.On("Finalize", mock.Anything, mock.Anything, mock.Anything).Return(delivery, nil)

	req := deliveryservice.FinalizeDeliveryRequest{
		Returns: []deliveryservice.ReturnInput{{ProductID: original.ID, Returned: 40}},
	}

	result, err := svc.FinalizeDelivery(context.Background(), delivery.ID, req)

	assert.NoError(t, err)
	// A rejeição é idempotente: tudo segue como não retornado (32 vendidos).
	assert.Equal(t, 0, result.Movements[0].Returned)
	assert.Equal(t, 32, result.Movements[0].Sold)
}

func TestFinalizeDelivery_SurplusAlreadyOnManifestIsIgnored(t *testing.T) {
	svc, mocks := newTestService()

	original := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32}
	delivery := domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String()},
		Products: []domain.DeliveryProduct{original},
	}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)
	mocks.deliveryRepo.On("Finalize", mock.Anything, mock.Anything, mock.Anything).Return(delivery, nil)

	req := deliveryservice.FinalizeDeliveryRequest{
		Returns: []deliveryservice.ReturnInput{{ProductID: original.ID, Returned: 32}},
		Surplus: []deliveryservice.SurplusInput{{ProductID: original.ID, Quantity: 5}},
	}

	result, err := svc.FinalizeDelivery(context.Background(), delivery.ID, req)

	assert.NoError(t, err)
	assert.Len(t, result.Movements, 1)
	mocks.productRepo.AssertNotCalled(t, "FindByID")
}

func TestFinalizeDelivery_Fail_AlreadyFinalized(t *testing.T) {
	svc, mocks := newTestService()

	delivery := domain.Delivery{ID: uuid.New().String(), Status: domain.StatusFinalized}
	mocks.deliveryRepo.On("FindByID", mock.Anything, delivery.ID).Return(delivery, nil)

	_, err := svc.FinalizeDelivery(context.Background(), delivery.ID, deliveryservice.FinalizeDeliveryRequest{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
	mocks.deliveryRepo.AssertNotCalled(t, "Finalize")
}

// --- Testes para GetDeliveryByID / ListDeliveries ---

func TestGetDeliveryByID_Fail_InvalidUUID(t *testing.T) {
	svc, mocks := newTestService()

	_, err := svc.GetDeliveryByID(context.Background(), "nao-e-uuid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mocks.deliveryRepo.AssertNotCalled(t, "FindByID")
}

func TestListDeliveries_Success(t *testing.T) {
	svc, mocks := newTestService()

	expected := []domain.Delivery{{ID: uuid.New().String()}, {ID: uuid.New().String()}}
	mocks.deliveryRepo.On("FindAll", mock.Anything).Return(expected, nil)

	deliveries, err := svc.ListDeliveries(context.Background())

	assert.NoError(t, err)
	assert.Len(t, deliveries, 2)
	mocks.deliveryRepo.AssertExpectations(t)
}
