package domain

import (
	"time"
)

// Unit representa uma unidade de distribuição (cidade + bairro).
// É a dona do estoque local: créditos de transferência e de retorno de
// finalização entram no estoque da unidade.
type Unit struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	District  string    `json:"district"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
