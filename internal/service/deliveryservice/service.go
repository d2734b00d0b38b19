package deliveryservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// ProductRepository é a porta de consulta do pool de estoque que o Serviço de
// Cargas usa para checar disponibilidade (os limites de clamp do carrinho).
type ProductRepository interface {
	FindByID(ctx domain.Context, id string) (domain.Product, error)
}

// DirectoryRepository resolve os diretórios de referência (entregadores e
// veículos) na criação de uma carga.
type DirectoryRepository interface {
	FindDeliveryPersonByID(ctx context.Context, id string) (domain.DeliveryPerson, error)
	FindVehicleByID(ctx context.Context, id string) (domain.Vehicle, error)
}

// UnitRepository resolve a unidade de origem de uma carga.
type UnitRepository interface {
	GetUnitByID(ctx context.Context, id string) (domain.Unit, error)
}

// Service orquestra o ciclo de vida das cargas: criação a partir de um
// carrinho, edição do manifesto e finalização (reconciliação vendidos vs.
// retornados). Toda a regra de quantidade vive no pacote domain; aqui ficam a
// resolução de referências e a persistência.
type Service struct {
	deliveryRepo domain.DeliveryRepository
	productRepo  ProductRepository
	directory    DirectoryRepository
	unitRepo     UnitRepository
	logger       logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Cargas.
func NewService(
	deliveryRepo domain.DeliveryRepository,
	productRepo ProductRepository,
	directory DirectoryRepository,
	unitRepo UnitRepository,
	logger logger.Logger,
) *Service {
	return &Service{
		deliveryRepo: deliveryRepo,
		productRepo:  productRepo,
		directory:    directory,
		unitRepo:     unitRepo,
		logger:       logger,
	}
}

// ItemSelection é uma seleção de produto com quantidade desejada.
type ItemSelection struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateDeliveryRequest é o payload de criação de uma nova carga.
type CreateDeliveryRequest struct {
	UnitID           string          `json:"unit_id"`
	DeliveryPersonID string          `json:"delivery_person_id"`
	VehicleID        string          `json:"vehicle_id"`
	Items            []ItemSelection `json:"items"`
}

// CreateDelivery cria uma nova carga a partir de um carrinho de seleções.
// As quantidades são acumuladas pelas regras do carrinho: limitadas ao
// estoque disponível de cada produto, nunca acima. O estoque é debitado na
// mesma transação que persiste a carga.
func (s *Service) CreateDelivery(ctx domain.Context, req CreateDeliveryRequest) (domain.Delivery, error) {
	s.logger.Debug("Iniciando criação de carga no serviço.", map[string]interface{}{
		"unit_id":    req.UnitID,
		"person_id":  req.DeliveryPersonID,
		"vehicle_id": req.VehicleID,
		"items":      len(req.Items),
	})

	if len(req.Items) == 0 {
		return domain.Delivery{}, apperror.NewValidationError("A carga deve conter pelo menos um produto.")
	}
	for _, field := range []string{req.UnitID, req.DeliveryPersonID, req.VehicleID} {
		if _, err := uuid.Parse(field); err != nil {
			return domain.Delivery{}, apperror.NewValidationError("Unidade, entregador e veículo devem ser UUIDs válidos.")
		}
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateDelivery", nil)
	}

	// 1. Resolver os diretórios de referência.
	unit, err := s.unitRepo.GetUnitByID(ctxGo, req.UnitID)
	if err != nil {
		return domain.Delivery{}, err
	}
	person, err := s.directory.FindDeliveryPersonByID(ctxGo, req.DeliveryPersonID)
	if err != nil {
		return domain.Delivery{}, err
	}
	vehicle, err := s.directory.FindVehicleByID(ctxGo, req.VehicleID)
	if err != nil {
		return domain.Delivery{}, err
	}

	// 2. Montar o carrinho com as regras de clamp do domínio.
	var cart domain.Cart
	for _, item := range req.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return domain.Delivery{}, err
		}
		cart = domain.AddItem(cart, product, item.Quantity)
	}
	if len(cart) == 0 {
		return domain.Delivery{}, apperror.NewValidationError("Nenhum dos produtos selecionados tem estoque disponível.")
	}

	// 3. Converter o carrinho em manifesto + transações de débito.
	deliveryID := uuid.NewString()
	products := make([]domain.DeliveryProduct, 0, len(cart))
	transactions := make([]domain.StockTransaction, 0, len(cart))
	for _, item := range cart {
		products = append(products, domain.DeliveryProduct{
			ID:       item.ProductID,
			Name:     item.Name,
			Quantity: item.Quantity,
		})
		transactions = append(transactions, domain.StockTransaction{
			ProductID:  item.ProductID,
			UnitID:     unit.ID,
			DeliveryID: deliveryID,
			Kind:       domain.TransactionDeliveryOut,
			Quantity:   item.Quantity,
		})
	}

	delivery := domain.Delivery{
		ID:             deliveryID,
		DeliveryPerson: person,
		Unit:           unit,
		Vehicle:        vehicle,
		DepartureTime:  time.Now().Format("15:04"),
		Status:         domain.StatusStartingRoute,
		Products:       products,
	}

	created, err := s.deliveryRepo.Create(ctx, delivery, transactions)
	if err != nil {
		s.logger.Error("Falha ao persistir nova carga.", err)
		return domain.Delivery{}, err
	}

	s.logger.Info("Carga criada com sucesso.", map[string]interface{}{"delivery_id": created.ID, "products": len(created.Products)})
	return created, nil
}

// GetDeliveryByID busca uma carga pelo ID.
func (s *Service) GetDeliveryByID(ctx domain.Context, id string) (domain.Delivery, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Delivery{}, apperror.NewValidationError("O ID da carga deve ser um UUID válido.")
	}
	return s.deliveryRepo.FindByID(ctx, id)
}

// ListDeliveries devolve todas as cargas, mais recentes primeiro.
func (s *Service) ListDeliveries(ctx domain.Context) ([]domain.Delivery, error) {
	deliveries, err := s.deliveryRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar cargas.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar cargas.", err)
	}
	return deliveries, nil
}

// EditDeliveryRequest é o payload do commit de edição de uma carga.
// Transfers mapeia IDs de itens ORIGINAIS para a quantidade a transferir para
// o estoque local; NewItems são produtos do pool a adicionar à carga.
type EditDeliveryRequest struct {
	Transfers map[string]int  `json:"transfers"`
	NewItems  []ItemSelection `json:"new_items"`
}

// EditDelivery aplica um ciclo completo de edição sobre uma carga não
// finalizada: abre o rascunho, adiciona os itens novos (limitados ao estoque
// do pool), registra as transferências e commita. As transações de estoque
// resultantes (créditos de transferência, débitos de itens novos) são
// aplicadas junto com o novo manifesto, atomicamente.
func (s *Service) EditDelivery(ctx domain.Context, deliveryID string, req EditDeliveryRequest) (domain.Delivery, error) {
	s.logger.Debug("Iniciando edição de carga no serviço.", map[string]interface{}{
		"delivery_id": deliveryID,
		"transfers":   len(req.Transfers),
		"new_items":   len(req.NewItems),
	})

	if _, err := uuid.Parse(deliveryID); err != nil {
		return domain.Delivery{}, apperror.NewValidationError("O ID da carga deve ser um UUID válido.")
	}

	delivery, err := s.deliveryRepo.FindByID(ctx, deliveryID)
	if err != nil {
		return domain.Delivery{}, err
	}

	draft, err := domain.StartEdit(delivery)
	if err != nil {
		// Carga finalizada: o erro de estado sobe, nunca é silenciado.
		return domain.Delivery{}, err
	}

	// 1. Itens novos: buscar no pool e limitar ao disponível.
	if len(req.NewItems) > 0 {
		selections := make([]domain.CartItem, 0, len(req.NewItems))
		for _, item := range req.NewItems {
			product, err := s.productRepo.FindByID(ctx, item.ProductID)
			if err != nil {
				return domain.Delivery{}, err
			}
			qty := item.Quantity
			if qty > product.Quantity {
				qty = product.Quantity
			}
			selections = append(selections, domain.CartItem{
				ProductID:         product.ID,
				Name:              product.Name,
				Quantity:          qty,
				AvailableQuantity: product.Quantity,
			})
		}
		draft = domain.AddProducts(draft, selections)
	}

	// 2. Transferências dos itens originais para o estoque local.
	for productID, qty := range req.Transfers {
		draft, err = domain.SetTransferQuantity(draft, productID, qty)
		if err != nil {
			return domain.Delivery{}, err
		}
	}

	// 3. Commit do rascunho: novo manifesto + transações.
	products, transactions := domain.CommitEdit(draft)
	for i := range transactions {
		transactions[i].UnitID = delivery.Unit.ID
	}

	delivery.Products = products
	updated, err := s.deliveryRepo.UpdateManifest(ctx, delivery, transactions)
	if err != nil {
		s.logger.Error("Falha ao persistir edição da carga.", err)
		return domain.Delivery{}, err
	}

	s.logger.Info("Carga editada com sucesso.", map[string]interface{}{"delivery_id": updated.ID, "products": len(updated.Products)})
	return updated, nil
}

// ReturnInput informa a quantidade retornada de um item original na finalização.
type ReturnInput struct {
	ProductID    string `json:"product_id"`
	Returned     int    `json:"returned"`
	ReceivedFrom string `json:"received_from,omitempty"`
}

// SurplusInput informa um produto excedente descoberto no veículo.
type SurplusInput struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	ReceivedFrom string `json:"received_from,omitempty"`
}

// FinalizeDeliveryRequest é o payload da finalização de uma carga.
type FinalizeDeliveryRequest struct {
	Returns []ReturnInput  `json:"returns"`
	Surplus []SurplusInput `json:"surplus"`
}

// FinalizeResult é o resultado da finalização: a carga terminal e os
// movimentos reconciliados.
type FinalizeResult struct {
	Delivery  domain.Delivery          `json:"delivery"`
	Movements []domain.ProductMovement `json:"movements"`
}

// FinalizeDelivery fecha uma carga: reconcilia cada linha do manifesto em
// vendidos/retornados, incorpora os excedentes e converte tudo em transações
// de estoque aplicadas atomicamente. Linhas sem retorno informado contam
// como totalmente vendidas. Retornados acima da quantidade inicial são
// rejeitados pela regra do domínio (o movimento fica como estava);
// finalizar uma carga já finalizada é um erro de estado.
func (s *Service) FinalizeDelivery(ctx domain.Context, deliveryID string, req FinalizeDeliveryRequest) (FinalizeResult, error) {
	s.logger.Debug("Iniciando finalização de carga no serviço.", map[string]interface{}{
		"delivery_id": deliveryID,
		"returns":     len(req.Returns),
		"surplus":     len(req.Surplus),
	})

	if _, err := uuid.Parse(deliveryID); err != nil {
		return FinalizeResult{}, apperror.NewValidationError("O ID da carga deve ser um UUID válido.")
	}

	delivery, err := s.deliveryRepo.FindByID(ctx, deliveryID)
	if err != nil {
		return FinalizeResult{}, err
	}

	movements, err := domain.StartFinalize(delivery)
	if err != nil {
		return FinalizeResult{}, err
	}

	// 1. Linha sem retorno informado reconcilia como totalmente vendida.
	for _, m := range movements {
		movements = domain.SetReturned(movements, m.ID, 0)
	}

	// 2. Retornados dos itens originais (vendidos derivados pelo domínio).
	for _, ret := range req.Returns {
		movements = domain.SetReturned(movements, ret.ProductID, ret.Returned)
		if ret.ReceivedFrom != "" {
			movements = domain.SetReceivedFrom(movements, ret.ProductID, ret.ReceivedFrom)
		}
	}

	// 3. Excedentes descobertos no veículo entram como totalmente retornados.
	for _, sur := range req.Surplus {
		if _, onManifest := delivery.FindManifestItem(sur.ProductID); onManifest {
			// Produtos da carga original não entram como excedente.
			continue
		}
		product, err := s.productRepo.FindByID(ctx, sur.ProductID)
		if err != nil {
			return FinalizeResult{}, err
		}
		movements = domain.AddSurplus(movements, product, sur.Quantity, sur.ReceivedFrom)
	}

	// 4. Converter e aplicar: tudo commita junto ou nada é aplicado.
	transactions, err := domain.ConfirmTransactions(delivery, movements)
	if err != nil {
		return FinalizeResult{}, err
	}

	finalized, err := s.deliveryRepo.Finalize(ctx, delivery, transactions)
	if err != nil {
		s.logger.Error("Falha ao persistir finalização da carga.", err)
		return FinalizeResult{}, err
	}

	s.logger.Info("Carga finalizada com sucesso.", map[string]interface{}{
		"delivery_id": finalized.ID,
		"movements":   len(movements),
	})
	return FinalizeResult{Delivery: finalized, Movements: movements}, nil
}
