package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
)

func newRouteDelivery(products ...domain.DeliveryProduct) domain.Delivery {
	return domain.Delivery{
		ID:       uuid.New().String(),
		Status:   domain.StatusInRoute,
		Unit:     domain.Unit{ID: uuid.New().String(), City: "Resende", District: "Campos Elíseos"},
		Products: products,
	}
}

// --- Testes para StartEdit ---

func TestStartEdit_SnapshotsManifest(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	delivery := newRouteDelivery(item)

	draft, err := domain.StartEdit(delivery)

	assert.NoError(t, err)
	assert.Equal(t, delivery.ID, draft.DeliveryID)
	assert.Equal(t, draft.Original, draft.Products)
	assert.True(t, draft.IsOriginal(item.ID))
}

func TestStartEdit_Fail_FinalizedDelivery(t *testing.T) {
	delivery := newRouteDelivery()
	delivery.Status = domain.StatusFinalized

	_, err := domain.StartEdit(delivery)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

// --- Testes para classificação original vs. novo ---

func TestIsOriginal_DerivedFromSnapshotNotFromCurrentManifest(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, err := domain.StartEdit(newRouteDelivery(item))
	assert.NoError(t, err)

	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 2, AvailableQuantity: 40}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	assert.True(t, draft.IsOriginal(item.ID))
	assert.False(t, draft.IsOriginal(novo.ProductID))
}

// --- Testes para AdjustNewItemQuantity ---

func TestAdjustNewItemQuantity_IncrementClampedAtAvailability(t *testing.T) {
	draft, _ := domain.StartEdit(newRouteDelivery())
	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 3, AvailableQuantity: 3}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	out, err := domain.AdjustNewItemQuantity(draft, novo.ProductID, true, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, out.Products[0].Quantity) // Já no teto: sem mudança, sem erro
}

func TestAdjustNewItemQuantity_DecrementFloorIsOne(t *testing.T) {
	draft, _ := domain.StartEdit(newRouteDelivery())
	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 8kg (Cheio)", Quantity: 1, AvailableQuantity: 15}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	out, err := domain.AdjustNewItemQuantity(draft, novo.ProductID, false, 15)

	assert.NoError(t, err)
	assert.Equal(t, 1, out.Products[0].Quantity)
}

func TestAdjustNewItemQuantity_Fail_OriginalItem(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))

	_, err := domain.AdjustNewItemQuantity(draft, item.ID, true, 150)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

// --- Testes para RemoveNewItem ---

func TestRemoveNewItem_RemovesOnlyNewItems(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))
	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 2, AvailableQuantity: 40}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	out, err := domain.RemoveNewItem(draft, novo.ProductID)
	assert.NoError(t, err)
	assert.Len(t, out.Products, 1)

	_, err = domain.RemoveNewItem(out, item.ID)
	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

// --- Testes para SetTransferQuantity ---

func TestSetTransferQuantity_ClampedAtItemQuantity(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))

	out, err := domain.SetTransferQuantity(draft, item.ID, 99)

	assert.NoError(t, err)
	assert.Equal(t, 30, out.Transfers[item.ID])
}

func TestSetTransferQuantity_NegativeClearsTransfer(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))
	draft, _ = domain.SetTransferQuantity(draft, item.ID, 10)

	out, err := domain.SetTransferQuantity(draft, item.ID, -5)

	assert.NoError(t, err)
	_, exists := out.Transfers[item.ID]
	assert.False(t, exists)
}

func TestSetTransferQuantity_Fail_NewItem(t *testing.T) {
	draft, _ := domain.StartEdit(newRouteDelivery())
	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 2, AvailableQuantity: 40}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	_, err := domain.SetTransferQuantity(draft, novo.ProductID, 1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.IllegalStateError{}, err)
}

// --- Testes para AddProducts ---

func TestAddProducts_SkipsProductsAlreadyOnManifest(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))

	out := domain.AddProducts(draft, []domain.CartItem{
		{ProductID: item.ID, Name: item.Name, Quantity: 5, AvailableQuantity: 150},
	})

	assert.Len(t, out.Products, 1)
	assert.Equal(t, 30, out.Products[0].Quantity)
}

// --- Testes para CommitEdit ---

func TestCommitEdit_TransferReducesOriginalAndCreditsLocalStock(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))
	draft, _ = domain.SetTransferQuantity(draft, item.ID, 12)

	products, transactions := domain.CommitEdit(draft)

	assert.Len(t, products, 1)
	assert.Equal(t, 18, products[0].Quantity)

	assert.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionTransferIn, transactions[0].Kind)
	assert.Equal(t, 12, transactions[0].Quantity)
	assert.Equal(t, 12, transactions[0].StockDelta())
}

func TestCommitEdit_FullTransferDropsLine(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))
	draft, _ = domain.SetTransferQuantity(draft, item.ID, 30)

	products, transactions := domain.CommitEdit(draft)

	assert.Empty(t, products)
	assert.Len(t, transactions, 1)
	assert.Equal(t, 30, transactions[0].Quantity)
}

func TestCommitEdit_NewItemsDebitThePool(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))
	novo := domain.CartItem{ProductID: uuid.New().String(), Name: "Botijão 45kg (Cheio)", Quantity: 4, AvailableQuantity: 40}
	draft = domain.AddProducts(draft, []domain.CartItem{novo})

	products, transactions := domain.CommitEdit(draft)

	assert.Len(t, products, 2)
	assert.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionDeliveryOut, transactions[0].Kind)
	assert.Equal(t, 4, transactions[0].Quantity)
	assert.Equal(t, -4, transactions[0].StockDelta())
}

func TestCommitEdit_NoChangesYieldsNoTransactions(t *testing.T) {
	item := domain.DeliveryProduct{ID: uuid.New().String(), Name: "Botijão 13kg (Cheio)", Quantity: 30}
	draft, _ := domain.StartEdit(newRouteDelivery(item))

	products, transactions := domain.CommitEdit(draft)

	assert.Len(t, products, 1)
	assert.Empty(t, transactions)
}
