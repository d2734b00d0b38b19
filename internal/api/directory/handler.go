package directory

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// DirectoryService define o contrato que o Handler espera da camada de Serviço.
type DirectoryService interface {
	ListDeliveryPeople(ctx domain.Context) ([]domain.DeliveryPerson, error)
	ListVehicles(ctx domain.Context) ([]domain.Vehicle, error)
}

// Handler agrupa os Handlers dos diretórios de referência.
type Handler struct {
	Service DirectoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc DirectoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// ListDeliveryPeopleHandler lida com a requisição GET /v1/delivery-people.
func (h *Handler) ListDeliveryPeopleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	people, err := h.Service.ListDeliveryPeople(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, people, nil, http.StatusOK)
}

// ListVehiclesHandler lida com a requisição GET /v1/vehicles.
func (h *Handler) ListVehiclesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	vehicles, err := h.Service.ListVehicles(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, vehicles, nil, http.StatusOK)
}
