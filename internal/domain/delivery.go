package domain

import (
	"time"
)

// DeliveryStatus representa o estado do ciclo de vida de uma carga.
// "Finalizada" é terminal: o manifesto se torna imutável.
type DeliveryStatus string

const (
	StatusStartingRoute DeliveryStatus = "Iniciando Rota"
	StatusInRoute       DeliveryStatus = "Em Rota"
	StatusFinalized     DeliveryStatus = "Finalizada"
)

// DeliveryProduct é uma linha do manifesto de uma carga.
// É uma cópia de valor (nome + quantidade) do produto do catálogo no momento
// do comprometimento: mudanças posteriores no estoque não reescrevem o histórico.
type DeliveryProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// DeliveryPerson é o entregador responsável pela carga.
type DeliveryPerson struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
}

// Vehicle é o veículo que transporta a carga.
type Vehicle struct {
	ID    string `json:"id,omitempty"`
	Model string `json:"model"`
	Plate string `json:"plate"`
}

// Delivery representa uma carga despachada: entregador, veículo, unidade de
// origem e o manifesto de produtos comprometido.
// Enquanto o status não for terminal, o manifesto pode ser editado.
type Delivery struct {
	ID             string            `json:"id"`
	DeliveryPerson DeliveryPerson    `json:"delivery_person"`
	Unit           Unit              `json:"unit"`
	Vehicle        Vehicle           `json:"vehicle"`
	DepartureTime  string            `json:"departure_time"` // Horário de saída, formato "HH:MM"
	Status         DeliveryStatus    `json:"status"`
	Products       []DeliveryProduct `json:"products"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsFinalized informa se a carga atingiu o estado terminal.
func (d Delivery) IsFinalized() bool {
	return d.Status == StatusFinalized
}

// FindManifestItem busca uma linha do manifesto pelo ID do produto.
func (d Delivery) FindManifestItem(productID string) (DeliveryProduct, bool) {
	for _, p := range d.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return DeliveryProduct{}, false
}

// DeliveryRepository define o contrato de persistência para a entidade Delivery.
// A atomicidade das transações de estoque acopladas a cada operação (débito na
// criação, créditos/débitos na edição, retornos e vendas na finalização) é
// responsabilidade da implementação: tudo em uma única transação de banco.
type DeliveryRepository interface {
	Create(ctx Context, delivery Delivery, transactions []StockTransaction) (Delivery, error)
	FindByID(ctx Context, id string) (Delivery, error)
	FindAll(ctx Context) ([]Delivery, error)
	UpdateManifest(ctx Context, delivery Delivery, transactions []StockTransaction) (Delivery, error)
	Finalize(ctx Context, delivery Delivery, transactions []StockTransaction) (Delivery, error)
}
