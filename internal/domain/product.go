package domain

import (
	"time"
)

// Product representa um item do catálogo de botijões (a Entidade do estoque).
// A quantidade aqui é a fonte de verdade da disponibilidade da unidade.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"` // Estoque disponível (nunca negativo)
	Price     float64   `json:"price"`
	Version   int       `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockStatus classifica o nível de estoque de um produto.
type StockStatus string

const (
	StockStatusInStock StockStatus = "in_stock"
	StockStatusLow     StockStatus = "low_stock"
)

// LowStockThreshold é o limite fixo de classificação de estoque baixo.
// É uma constante de design, não é configurável por produto.
const LowStockThreshold = 20

// ClassifyStockLevel classifica o produto como em estoque ou estoque baixo.
// Quantidades acima do limite são "in_stock"; o restante é "low_stock".
func ClassifyStockLevel(p Product) StockStatus {
	if p.Quantity > LowStockThreshold {
		return StockStatusInStock
	}
	return StockStatusLow
}

// ProductCategory é uma das classes de peso fixas usadas nos filtros do catálogo.
type ProductCategory string

const (
	CategoryAll  ProductCategory = "all"
	Category13kg ProductCategory = "13kg"
	Category45kg ProductCategory = "45kg"
	Category8kg  ProductCategory = "8kg"
)

// ProductFilter define os parâmetros de busca do catálogo.
// O termo é comparado por substring (case-insensitive) com o nome do produto;
// a categoria é comparada como substring do nome ("all" aceita tudo).
// Os dois predicados são combinados com E lógico.
type ProductFilter struct {
	Term     string
	Category ProductCategory
}

// --- Interfaces de Contrato ---

// ProductRepository é a interface que a camada de Repositório DEVE implementar.
// É a porta de consulta do pool de estoque.
type ProductRepository interface {
	FindByID(ctx Context, id string) (Product, error)
	FindAll(ctx Context) ([]Product, error)
}

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas.
// Isso evita a dependência direta do pacote "context".
type Context interface{}
