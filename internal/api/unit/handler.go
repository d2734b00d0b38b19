package unit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// UnitService define o contrato que o Handler espera da camada de Serviço.
type UnitService interface {
	CreateUnit(ctx domain.Context, unit domain.Unit) (domain.Unit, error)
	GetUnitByID(ctx domain.Context, id string) (domain.Unit, error)
	GetAllUnits(ctx domain.Context) ([]domain.Unit, error)
	UpdateUnit(ctx domain.Context, unit domain.Unit) (domain.Unit, error)
	DeleteUnit(ctx domain.Context, id string) error
}

// Handler agrupa todos os métodos de Handler das unidades.
type Handler struct {
	Service UnitService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UnitService, log logger.Logger) *Handler {
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
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
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

// CollectionHandler lida com GET e POST em /v1/units.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		units, err := h.Service.GetAllUnits(r.Context())
		h.handleServiceResponse(w, r, units, err, http.StatusOK)
	case http.MethodPost:
		var unit domain.Unit
		if err := json.NewDecoder(r.Body).Decode(&unit); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}
		created, err := h.Service.CreateUnit(r.Context(), unit)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com GET, PUT e DELETE em /v1/units/{id}.
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")

	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	unitID := segments[2]

	switch r.Method {
	case http.MethodGet:
		unit, err := h.Service.GetUnitByID(r.Context(), unitID)
		h.handleServiceResponse(w, r, unit, err, http.StatusOK)
	case http.MethodPut:
		var unit domain.Unit
		if err := json.NewDecoder(r.Body).Decode(&unit); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		unit.ID = unitID
		updated, err := h.Service.UpdateUnit(r.Context(), unit)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)
	case http.MethodDelete:
		err := h.Service.DeleteUnit(r.Context(), unitID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
