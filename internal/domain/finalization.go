package domain

import (
	"fmt"

	apperror "fuzalog/internal/errors"
)

// ProductMovement é a linha de reconciliação de um produto na finalização de
// uma carga: divide a quantidade inicial entre vendidos e retornados.
//
// Invariante central: Sold + Returned == InitialQuantity após qualquer
// mutação. Sold é sempre derivado (o complemento de Returned), recalculado a
// cada alteração e nunca editado diretamente.
type ProductMovement struct {
	ID              string `json:"id"` // ID do produto
	Name            string `json:"name"`
	InitialQuantity int    `json:"initial_quantity"`
	Sold            int    `json:"sold"`
	Returned        int    `json:"returned"`
	IsNew           bool   `json:"is_new,omitempty"`
	ReceivedFrom    string `json:"received_from,omitempty"` // Unidade de destino do retorno (proveniência)
}

// StartFinalize abre a reconciliação de uma carga: um movimento por linha do
// manifesto, com vendidos e retornados zerados.
// Uma carga já finalizada não entra novamente em finalização.
func StartFinalize(d Delivery) ([]ProductMovement, error) {
	if d.IsFinalized() {
		return nil, apperror.NewIllegalStateError(fmt.Sprintf("A carga %s já foi finalizada.", d.ID))
	}

	movements := make([]ProductMovement, 0, len(d.Products))
	for _, p := range d.Products {
		movements = append(movements, ProductMovement{
			ID:              p.ID,
			Name:            p.Name,
			InitialQuantity: p.Quantity,
			Sold:            0,
			Returned:        0,
		})
	}
	return movements, nil
}

// SetReturned define a quantidade retornada de um movimento e recalcula os
// vendidos como a diferença para a quantidade inicial.
//
// Para movimentos originais, retornados acima da quantidade inicial são uma
// rejeição idempotente: a sequência volta inalterada. Valores negativos são
// tratados como zero.
func SetReturned(movements []ProductMovement, productID string, returned int) []ProductMovement {
	if returned < 0 {
		returned = 0
	}

	for i, m := range movements {
		if m.ID != productID {
			continue
		}
		if !m.IsNew && returned > m.InitialQuantity {
			return movements
		}
		out := make([]ProductMovement, len(movements))
		copy(out, movements)
		out[i].Returned = returned
		out[i].Sold = m.InitialQuantity - returned
		return out
	}
	return movements
}

// AddSurplus anexa um produto descoberto no veículo que não constava do
// manifesto original. Estoque excedente é modelado como totalmente retornado:
// entra no estoque local sem ter sido vendido.
func AddSurplus(movements []ProductMovement, product Product, qty int, receivedFrom string) []ProductMovement {
	if qty < 1 {
		return movements
	}

	out := make([]ProductMovement, len(movements), len(movements)+1)
	copy(out, movements)
	return append(out, ProductMovement{
		ID:              product.ID,
		Name:            product.Name,
		InitialQuantity: qty,
		Sold:            0,
		Returned:        qty,
		IsNew:           true,
		ReceivedFrom:    receivedFrom,
	})
}

// RemoveSurplus remove um movimento adicionado durante a finalização. Existe
// para clientes interativos que montam a reconciliação passo a passo; a API
// HTTP envia os excedentes já consolidados.
// Movimentos originais do manifesto não são removíveis.
func RemoveSurplus(movements []ProductMovement, productID string) ([]ProductMovement, error) {
	for i, m := range movements {
		if m.ID != productID {
			continue
		}
		if !m.IsNew {
			return movements, apperror.NewIllegalStateError("Apenas produtos adicionados na finalização podem ser removidos.")
		}
		out := make([]ProductMovement, 0, len(movements)-1)
		out = append(out, movements[:i]...)
		return append(out, movements[i+1:]...), nil
	}
	return movements, nil
}

// SetReceivedFrom registra a unidade de proveniência/destino do retorno de um
// movimento. Movimento ausente é um no-op.
func SetReceivedFrom(movements []ProductMovement, productID string, unitID string) []ProductMovement {
	for i, m := range movements {
		if m.ID != productID {
			continue
		}
		out := make([]ProductMovement, len(movements))
		copy(out, movements)
		out[i].ReceivedFrom = unitID
		return out
	}
	return movements
}

// ConfirmTransactions converte os movimentos validados nas transações de
// estoque da finalização:
//
//   - Retornados são creditados (return_in) na unidade indicada em
//     ReceivedFrom, ou na unidade de origem da carga quando ausente.
//   - Vendidos são registrados como venda concluída (sale) e NÃO voltam a
//     nenhum pool: saíram do inventário permanentemente.
//
// Qualquer movimento que viole Sold + Returned == InitialQuantity invalida a
// finalização inteira: ou tudo é convertido, ou nada é.
func ConfirmTransactions(d Delivery, movements []ProductMovement) ([]StockTransaction, error) {
	if d.IsFinalized() {
		return nil, apperror.NewIllegalStateError(fmt.Sprintf("A carga %s já foi finalizada.", d.ID))
	}

	var transactions []StockTransaction
	for _, m := range movements {
		if m.Sold+m.Returned != m.InitialQuantity {
			return nil, apperror.NewInvalidQuantityError(fmt.Sprintf("Movimento do produto %s inconsistente: vendidos (%d) + retornados (%d) difere da quantidade inicial (%d).", m.ID, m.Sold, m.Returned, m.InitialQuantity))
		}

		if m.Returned > 0 {
			unitID := m.ReceivedFrom
			if unitID == "" {
				unitID = d.Unit.ID
			}
			transactions = append(transactions, StockTransaction{
				ProductID:  m.ID,
				UnitID:     unitID,
				DeliveryID: d.ID,
				Kind:       TransactionReturnIn,
				Quantity:   m.Returned,
			})
		}
		if m.Sold > 0 {
			transactions = append(transactions, StockTransaction{
				ProductID:  m.ID,
				UnitID:     d.Unit.ID,
				DeliveryID: d.ID,
				Kind:       TransactionSale,
				Quantity:   m.Sold,
			})
		}
	}
	return transactions, nil
}
