package domain

import (
	"fmt"

	apperror "fuzalog/internal/errors"
)

// EditDraft é o rascunho de edição do manifesto de uma carga não finalizada.
//
// A classificação "original vs. novo" é derivada por identidade: um item é
// original se e somente se o seu ID constava do manifesto no início da edição.
// A classificação nunca é armazenada por item, então não há como ela divergir
// das edições subsequentes.
//
// Todas as operações são puras (rascunho entra, rascunho sai); o chamador
// substitui o rascunho que mantém pelo retornado.
type EditDraft struct {
	DeliveryID string            `json:"delivery_id"`
	Original   []DeliveryProduct `json:"original"` // Manifesto no início da edição
	Products   []DeliveryProduct `json:"products"` // Manifesto em edição
	Transfers  map[string]int    `json:"transfers"` // productID -> quantidade a transferir para o estoque local
}

// StartEdit abre um rascunho de edição sobre uma carga.
// Cargas finalizadas têm manifesto imutável: a tentativa é um erro de estado,
// nunca silenciosamente ignorada.
func StartEdit(d Delivery) (EditDraft, error) {
	if d.IsFinalized() {
		return EditDraft{}, apperror.NewIllegalStateError(fmt.Sprintf("A carga %s já foi finalizada e não pode ser editada.", d.ID))
	}

	original := make([]DeliveryProduct, len(d.Products))
	copy(original, d.Products)
	products := make([]DeliveryProduct, len(d.Products))
	copy(products, d.Products)

	return EditDraft{
		DeliveryID: d.ID,
		Original:   original,
		Products:   products,
		Transfers:  map[string]int{},
	}, nil
}

// IsOriginal informa se o produto constava do manifesto no início da edição.
func (d EditDraft) IsOriginal(productID string) bool {
	for _, p := range d.Original {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// clone devolve uma cópia independente do rascunho.
func (d EditDraft) clone() EditDraft {
	out := EditDraft{
		DeliveryID: d.DeliveryID,
		Original:   d.Original, // Snapshot imutável, pode ser compartilhado
		Products:   make([]DeliveryProduct, len(d.Products)),
		Transfers:  make(map[string]int, len(d.Transfers)),
	}
	copy(out.Products, d.Products)
	for id, qty := range d.Transfers {
		out.Transfers[id] = qty
	}
	return out
}

// AdjustNewItemQuantity incrementa ou decrementa a quantidade de um item
// adicionado durante a edição. É o passo unitário de clientes interativos do
// rascunho; a API HTTP envia a quantidade final direto no commit.
// O incremento é limitado à disponibilidade do produto no pool; o decremento
// tem piso 1 (remover é uma ação explícita, nunca efeito colateral de
// decrementar até zero).
// Itens originais não são ajustados por aqui: é um erro de categoria.
func AdjustNewItemQuantity(draft EditDraft, productID string, increment bool, available int) (EditDraft, error) {
	if draft.IsOriginal(productID) {
		return draft, apperror.NewIllegalStateError("Itens originais da carga são reduzidos por transferência, não por ajuste de quantidade.")
	}

	for i, p := range draft.Products {
		if p.ID != productID {
			continue
		}
		out := draft.clone()
		if increment {
			if p.Quantity+1 <= available {
				out.Products[i].Quantity = p.Quantity + 1
			}
		} else {
			if p.Quantity-1 >= 1 {
				out.Products[i].Quantity = p.Quantity - 1
			}
		}
		return out, nil
	}

	// Produto ausente do rascunho: no-op.
	return draft, nil
}

// RemoveNewItem remove um item adicionado durante a edição. Como o ajuste
// unitário, existe para clientes interativos que montam o rascunho passo a
// passo. Itens originais não podem ser removidos neste fluxo (são reduzidos via
// transferência); a tentativa é um erro de categoria.
func RemoveNewItem(draft EditDraft, productID string) (EditDraft, error) {
	if draft.IsOriginal(productID) {
		return draft, apperror.NewIllegalStateError("Itens originais da carga não podem ser removidos; use a transferência para o estoque local.")
	}

	for i, p := range draft.Products {
		if p.ID != productID {
			continue
		}
		out := draft.clone()
		out.Products = append(out.Products[:i], out.Products[i+1:]...)
		return out, nil
	}
	return draft, nil
}

// SetTransferQuantity registra a quantidade de um item ORIGINAL a ser movida
// da carga para o estoque local. Valores acima da quantidade do item são
// silenciosamente limitados (clamp), não rejeitados; negativos viram zero.
func SetTransferQuantity(draft EditDraft, productID string, qty int) (EditDraft, error) {
	if !draft.IsOriginal(productID) {
		return draft, apperror.NewIllegalStateError("A transferência para o estoque local só se aplica a itens originais da carga.")
	}

	item, ok := findProduct(draft.Products, productID)
	if !ok {
		return draft, nil
	}

	if qty < 0 {
		qty = 0
	}
	if qty > item.Quantity {
		qty = item.Quantity
	}

	out := draft.clone()
	if qty == 0 {
		delete(out.Transfers, productID)
	} else {
		out.Transfers[productID] = qty
	}
	return out, nil
}

// AddProducts anexa seleções do pool como itens novos (não originais) do
// rascunho. Produtos que já constam do manifesto são ignorados: um produto
// presente deve ter a quantidade ajustada, nunca ser adicionado de novo.
func AddProducts(draft EditDraft, selections []CartItem) EditDraft {
	out := draft.clone()
	for _, sel := range selections {
		if sel.Quantity < 1 {
			continue
		}
		if _, exists := findProduct(out.Products, sel.ProductID); exists {
			continue
		}
		out.Products = append(out.Products, DeliveryProduct{
			ID:       sel.ProductID,
			Name:     sel.Name,
			Quantity: sel.Quantity,
		})
	}
	return out
}

// CommitEdit fecha o rascunho: devolve o novo manifesto e as transações de
// estoque correspondentes.
//
//   - Cada transferência registrada credita o estoque local (transfer_in) e
//     reduz a quantidade do item original pelo mesmo montante; itens zerados
//     saem do manifesto.
//   - Cada item novo debita o pool (delivery_out) pela quantidade carregada.
//
// As transações saem sem ID e sem timestamp; o repositório os atribui na
// aplicação atômica.
func CommitEdit(draft EditDraft) ([]DeliveryProduct, []StockTransaction) {
	var products []DeliveryProduct
	var transactions []StockTransaction

	for _, p := range draft.Products {
		if !draft.IsOriginal(p.ID) {
			products = append(products, p)
			transactions = append(transactions, StockTransaction{
				ProductID:  p.ID,
				DeliveryID: draft.DeliveryID,
				Kind:       TransactionDeliveryOut,
				Quantity:   p.Quantity,
			})
			continue
		}

		transfer := draft.Transfers[p.ID]
		if transfer > p.Quantity {
			transfer = p.Quantity
		}
		if transfer > 0 {
			transactions = append(transactions, StockTransaction{
				ProductID:  p.ID,
				DeliveryID: draft.DeliveryID,
				Kind:       TransactionTransferIn,
				Quantity:   transfer,
			})
		}
		remaining := p.Quantity - transfer
		if remaining > 0 {
			products = append(products, DeliveryProduct{ID: p.ID, Name: p.Name, Quantity: remaining})
		}
	}

	return products, transactions
}

func findProduct(products []DeliveryProduct, productID string) (DeliveryProduct, bool) {
	for _, p := range products {
		if p.ID == productID {
			return p, true
		}
	}
	return DeliveryProduct{}, false
}
