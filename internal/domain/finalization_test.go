package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
)

// --- Testes para StartFinalize ---

func TestStartFinalize_OneMovementPerManifestLine(t *testing.T) {
	delivery := newRouteDelivery(
		domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32},
		domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 5},
	)

	movements, err := domain.StartFinalize(delivery)

	assert.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.Equal(t, 32, movements[0].InitialQuantity)
	assert.Equal(t, 0, movements[0].Sold)
	assert.Equal(t, 0, movements[0].Returned)
	assert.False(t, movements[0].IsNew)
}

func TestStartFinalize_Fail_AlreadyFinalized(t *testing.T) {
	delivery := newRouteDelivery()
	delivery.Status = domain.StatusFinalized

	_, err := domain.StartFinalize(delivery)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

// --- Testes para SetReturned ---

func TestSetReturned_SoldIsDerivedComplement(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)

	movements = domain.SetReturned(movements, productID, 12)

	assert.Equal(t, 12, movements[0].Returned)
	assert.Equal(t, 20, movements[0].Sold)
	assert.Equal(t, movements[0].InitialQuantity, movements[0].Sold+movements[0].Returned)
}

func TestSetReturned_AboveInitialIsIdempotentRejection(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)
	movements = domain.SetReturned(movements, productID, 12)

	out := domain.SetReturned(movements, productID, 40)

	// Retornados acima da quantidade inicial: a sequência volta inalterada.
	assert.Equal(t, 12, out[0].Returned)
	assert.Equal(t, 20, out[0].Sold)
}

func TestSetReturned_NegativeTreatedAsZero(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)

	out := domain.SetReturned(movements, productID, -3)

	assert.Equal(t, 0, out[0].Returned)
	assert.Equal(t, 32, out[0].Sold)
}

// --- Testes para AddSurplus / RemoveSurplus ---

func TestAddSurplus_EntersFullyReturned(t *testing.T) {
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)
	excedente := domain.Product{ID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 15}

	movements = domain.AddSurplus(movements, excedente, 8, "")

	assert.Len(t, movements, 2)
	surplus := movements[1]
	assert.True(t, surplus.IsNew)
	assert.Equal(t, 8, surplus.InitialQuantity)
	assert.Equal(t, 8, surplus.Returned)
	assert.Equal(t, 0, surplus.Sold)
}

func TestRemoveSurplus_Fail_OriginalMovement(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)

	_, err := domain.RemoveSurplus(movements, productID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

func TestRemoveSurplus_RemovesNewMovement(t *testing.T) {
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)
	excedente := domain.Product{ID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 15}
	movements = domain.AddSurplus(movements, excedente, 8, "")

	out, err := domain.RemoveSurplus(movements, excedente.ID)

	assert.NoError(t, err)
	assert.Len(t, out, 1)
}

// --- Testes para ConfirmTransactions ---

func TestConfirmTransactions_SplitsReturnedAndSold(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)
	movements = domain.SetReturned(movements, productID, 12)

	transactions, err := domain.ConfirmTransactions(delivery, movements)

	assert.NoError(t, err)
	assert.Len(t, transactions, 2)

	assert.Equal(t, domain.TransactionReturnIn, transactions[0].Kind)
	assert.Equal(t, 12, transactions[0].Quantity)
	assert.Equal(t, delivery.Unit.ID, transactions[0].UnitID)
	assert.Equal(t, 12, transactions[0].StockDelta())

	// Vendidos saem do inventário permanentemente: delta zero no pool.
	assert.Equal(t, domain.TransactionSale, transactions[1].Kind)
	assert.Equal(t, 20, transactions[1].Quantity)
	assert.Equal(t, 0, transactions[1].StockDelta())
}

func TestConfirmTransactions_ReceivedFromOverridesDeliveryUnit(t *testing.T) {
	productID := uuid.New().String()
	otherUnit := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 10})
	movements, _ := domain.StartFinalize(delivery)
	movements = domain.SetReturned(movements, productID, 10)
	movements = domain.SetReceivedFrom(movements, productID, otherUnit)

	transactions, err := domain.ConfirmTransactions(delivery, movements)

	assert.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.Equal(t, otherUnit, transactions[0].UnitID)
}

func TestConfirmTransactions_Fail_UnreconciledMovement(t *testing.T) {
	productID := uuid.New().String()
	delivery := newRouteDelivery(domain.DeliveryProduct{ID: productID, Name: "Botijão 13kg (Cheio)", Quantity: 32})
	movements, _ := domain.StartFinalize(delivery)
	movements[0].Returned = 5 // Mutação direta quebra o invariante: Sold não foi derivado.

	_, err := domain.ConfirmTransactions(delivery, movements)

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidQuantityError{}, err)
}

func TestConfirmTransactions_Fail_AlreadyFinalized(t *testing.T) {
	delivery := newRouteDelivery()
	delivery.Status = domain.StatusFinalized

	_, err := domain.ConfirmTransactions(delivery, nil)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}
