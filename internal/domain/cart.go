package domain

import "strings"

// CartItem é uma linha de rascunho de carga: referencia um produto do catálogo
// e carrega um snapshot do nome e da disponibilidade no momento da seleção.
// Invariantes: 1 <= Quantity <= AvailableQuantity enquanto o item existir;
// reduzir a zero remove o item do carrinho.
type CartItem struct {
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// Cart é o conjunto ordenado de linhas candidatas antes da criação de uma carga.
// Todas as operações são puras: recebem um carrinho e devolvem um novo carrinho,
// sem mutar o recebido. O chamador substitui o carrinho que mantém pelo retornado.
type Cart []CartItem

// AddItem adiciona uma quantidade de um produto ao carrinho.
// Se o produto já estiver presente, incrementa a quantidade, limitada ao estoque
// disponível do produto; se já estiver no teto, a chamada é um no-op silencioso
// (política de "não ultrapassar o estoque", sem erro). Se ausente, insere uma
// nova linha com quantidade min(requested, product.Quantity).
func AddItem(cart Cart, product Product, requested int) Cart {
	if requested < 1 {
		requested = 1
	}
	if product.Quantity <= 0 {
		// Sem estoque disponível: nada a adicionar.
		return cart
	}

	for i, item := range cart {
		if item.ProductID != product.ID {
			continue
		}
		newQuantity := item.Quantity + requested
		if newQuantity > product.Quantity {
			newQuantity = product.Quantity
		}
		out := make(Cart, len(cart))
		copy(out, cart)
		out[i].Quantity = newQuantity
		out[i].AvailableQuantity = product.Quantity
		return out
	}

	quantity := requested
	if quantity > product.Quantity {
		quantity = product.Quantity
	}
	out := make(Cart, len(cart), len(cart)+1)
	copy(out, cart)
	return append(out, CartItem{
		ProductID:         product.ID,
		Name:              product.Name,
		Quantity:          quantity,
		AvailableQuantity: product.Quantity,
	})
}

// RemoveItem decrementa a quantidade de uma linha do carrinho.
// Se a quantidade cair a zero ou abaixo, a linha é removida por inteiro.
// Produto ausente é um no-op.
func RemoveItem(cart Cart, productID string, decrement int) Cart {
	if decrement < 1 {
		decrement = 1
	}

	for i, item := range cart {
		if item.ProductID != productID {
			continue
		}
		if item.Quantity-decrement <= 0 {
			out := make(Cart, 0, len(cart)-1)
			out = append(out, cart[:i]...)
			return append(out, cart[i+1:]...)
		}
		out := make(Cart, len(cart))
		copy(out, cart)
		out[i].Quantity -= decrement
		return out
	}
	return cart
}

// FilterProducts aplica o filtro de busca do catálogo sobre uma sequência de produtos.
// Termo e categoria são combinados com E lógico.
func FilterProducts(products []Product, filter ProductFilter) []Product {
	term := strings.ToLower(strings.TrimSpace(filter.Term))
	category := filter.Category
	if category == "" {
		category = CategoryAll
	}

	var out []Product
	for _, p := range products {
		name := strings.ToLower(p.Name)
		if term != "" && !strings.Contains(name, term) {
			continue
		}
		if category != CategoryAll && !strings.Contains(name, string(category)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
