package domain

import "time"

// TransactionKind identifica o efeito de uma transação de estoque.
type TransactionKind string

const (
	// TransactionDeliveryOut debita o estoque da unidade ao comprometer
	// produtos em uma carga (criação ou itens novos na edição).
	TransactionDeliveryOut TransactionKind = "delivery_out"
	// TransactionTransferIn credita o estoque local com a quantidade de um
	// item original transferido para fora da carga durante a edição.
	TransactionTransferIn TransactionKind = "transfer_in"
	// TransactionReturnIn credita o estoque com a quantidade retornada na
	// finalização da carga.
	TransactionReturnIn TransactionKind = "return_in"
	// TransactionSale registra uma venda concluída. A quantidade vendida já
	// saiu do estoque no despacho e nunca retorna a nenhum pool.
	TransactionSale TransactionKind = "sale"
)

// StockTransaction é um lançamento do livro de movimentações de estoque.
// Cada operação de carga (criação, edição, finalização) é convertida em uma
// sequência de transações aplicadas atomicamente pelo repositório.
type StockTransaction struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	UnitID     string          `json:"unit_id"`
	DeliveryID string          `json:"delivery_id"`
	Kind       TransactionKind `json:"kind"`
	Quantity   int             `json:"quantity"` // Sempre positiva; o sinal vem do Kind
	CreatedAt  time.Time       `json:"created_at"`
}

// StockDelta é o efeito da transação sobre a quantidade disponível do produto.
// Vendas são apenas registro: o débito aconteceu no despacho.
func (t StockTransaction) StockDelta() int {
	switch t.Kind {
	case TransactionDeliveryOut:
		return -t.Quantity
	case TransactionTransferIn, TransactionReturnIn:
		return t.Quantity
	default:
		return 0
	}
}

// StockAdjustmentRequest é o payload esperado para o ajuste manual de estoque.
type StockAdjustmentRequest struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"` // Quantidade a ser adicionada/removida
}
