package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"409"`
	Category string `json:"category" example:"ILLEGAL_STATE"`
	Message  string `json:"message" example:"A carga já foi finalizada e não pode ser editada."`
}
