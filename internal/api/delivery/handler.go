package delivery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
	"fuzalog/internal/pkg/middleware"
	"fuzalog/internal/service/deliveryservice"
)

// DeliveryService define o contrato que o Handler espera da camada de Serviço.
type DeliveryService interface {
	CreateDelivery(ctx domain.Context, req deliveryservice.CreateDeliveryRequest) (domain.Delivery, error)
	GetDeliveryByID(ctx domain.Context, id string) (domain.Delivery, error)
	ListDeliveries(ctx domain.Context) ([]domain.Delivery, error)
	EditDelivery(ctx domain.Context, deliveryID string, req deliveryservice.EditDeliveryRequest) (domain.Delivery, error)
	FinalizeDelivery(ctx domain.Context, deliveryID string, req deliveryservice.FinalizeDeliveryRequest) (deliveryservice.FinalizeResult, error)
}

// Handler agrupa todos os métodos de Handler das cargas.
type Handler struct {
	Service DeliveryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc DeliveryService, log logger.Logger) *Handler {
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

		h.Logger.Info("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})

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

// CollectionHandler lida com GET e POST em /v1/deliveries.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listDeliveries(w, r)
	case http.MethodPost:
		h.createDelivery(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// listDeliveries lida com a requisição GET /v1/deliveries.
func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.Service.ListDeliveries(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, deliveries, nil, http.StatusOK)
}

// createDelivery lida com a requisição POST /v1/deliveries.
// @Summary Cria uma nova carga
// @Description Cria uma carga a partir de um carrinho de seleções. As quantidades são limitadas ao estoque disponível e o pool é debitado na mesma transação.
// @Tags deliveries
// @Accept json
// @Produce json
// @Param delivery body deliveryservice.CreateDeliveryRequest true "Unidade, entregador, veículo e itens"
// @Success 201 {object} domain.Delivery "Carga criada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Unidade, entregador, veículo ou produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /deliveries [post]
func (h *Handler) createDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if ok {
		h.Logger.Info("Criação de carga solicitada por", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	var req deliveryservice.CreateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateDelivery(ctx, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

// ItemHandler despacha as rotas sob /v1/deliveries/{id}:
//
//	GET  /v1/deliveries/{id}            busca uma carga
//	PUT  /v1/deliveries/{id}/products   commit de edição do manifesto
//	POST /v1/deliveries/{id}/finalize   finalização da carga
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")

	// segments: ["v1", "deliveries", "{id}"] ou ["v1", "deliveries", "{id}", "{acao}"]
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	deliveryID := segments[2]

	switch {
	case len(segments) == 3 && r.Method == http.MethodGet:
		h.getDelivery(w, r, deliveryID)
	case len(segments) == 4 && segments[3] == "products" && r.Method == http.MethodPut:
		h.editDelivery(w, r, deliveryID)
	case len(segments) == 4 && segments[3] == "finalize" && r.Method == http.MethodPost:
		h.finalizeDelivery(w, r, deliveryID)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// getDelivery lida com a requisição GET /v1/deliveries/{id}.
func (h *Handler) getDelivery(w http.ResponseWriter, r *http.Request, deliveryID string) {
	delivery, err := h.Service.GetDeliveryByID(r.Context(), deliveryID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, delivery, nil, http.StatusOK)
}

// editDelivery lida com a requisição PUT /v1/deliveries/{id}/products.
// @Summary Edita o manifesto de uma carga
// @Description Aplica um ciclo de edição: transferências de itens originais para o estoque local e adição de produtos novos do pool. Cargas finalizadas retornam 409.
// @Tags deliveries
// @Accept json
// @Produce json
// @Param id path string true "ID da carga"
// @Param edit body deliveryservice.EditDeliveryRequest true "Transferências e itens novos"
// @Success 200 {object} domain.Delivery "Carga com manifesto atualizado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Carga ou produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Carga já finalizada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /deliveries/{id}/products [put]
func (h *Handler) editDelivery(w http.ResponseWriter, r *http.Request, deliveryID string) {
	var req deliveryservice.EditDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.EditDelivery(r.Context(), deliveryID, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

// finalizeDelivery lida com a requisição POST /v1/deliveries/{id}/finalize.
// @Summary Finaliza uma carga
// @Description Reconcilia cada linha do manifesto em vendidos/retornados, incorpora excedentes e aplica as transações de estoque atomicamente. Finalizar duas vezes retorna 409.
// @Tags deliveries
// @Accept json
// @Produce json
// @Param id path string true "ID da carga"
// @Param finalize body deliveryservice.FinalizeDeliveryRequest true "Retornados e excedentes"
// @Success 200 {object} deliveryservice.FinalizeResult "Carga finalizada e movimentos reconciliados"
// @Failure 400 {object} domain.ErrorResponse "Quantidades não reconciliam"
// @Failure 404 {object} domain.ErrorResponse "Carga não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Carga já finalizada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /deliveries/{id}/finalize [post]
func (h *Handler) finalizeDelivery(w http.ResponseWriter, r *http.Request, deliveryID string) {
	var req deliveryservice.FinalizeDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	result, err := h.Service.FinalizeDelivery(r.Context(), deliveryID, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, result, nil, http.StatusOK)
}
