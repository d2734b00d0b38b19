package productservice

import (
	"context"

	"github.com/google/uuid"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// ProductRepository define o contrato que o Serviço de Catálogo espera da
// camada de Persistência (a porta de consulta do pool).
type ProductRepository interface {
	FindByID(ctx domain.Context, id string) (domain.Product, error)
	FindAll(ctx domain.Context) ([]domain.Product, error)
}

// StockRepository define o contrato de mutação de estoque para ajustes manuais.
type StockRepository interface {
	AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.Product, error)
}

// ProductView é o produto do catálogo enriquecido com a classificação de
// nível de estoque, como o painel exibe.
type ProductView struct {
	domain.Product
	StockStatus domain.StockStatus `json:"stock_status"`
}

// Service implementa a interface domain.ProductService.
type Service struct {
	repo      ProductRepository
	stockRepo StockRepository
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo ProductRepository, stockRepo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, stockRepo: stockRepo, logger: logger}
}

// GetProductByID busca um produto do catálogo após validar o formato do ID.
func (s *Service) GetProductByID(ctx domain.Context, id string) (domain.Product, error) {
	s.logger.Debug("Iniciando busca de produto por ID no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de produto inválido fornecido.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar produto no repositório.", err)
		return domain.Product{}, err // Erros do repositório já são NotFoundError ou DBError
	}

	return product, nil
}

// ListProducts devolve o catálogo com o filtro de busca aplicado e cada
// produto classificado por nível de estoque.
func (s *Service) ListProducts(ctx domain.Context, filter domain.ProductFilter) ([]ProductView, error) {
	s.logger.Debug("Iniciando listagem do catálogo no serviço.", map[string]interface{}{
		"term":     filter.Term,
		"category": filter.Category,
	})

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao buscar catálogo no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar produtos.", err)
	}

	filtered := domain.FilterProducts(products, filter)

	views := make([]ProductView, 0, len(filtered))
	for _, p := range filtered {
		views = append(views, ProductView{
			Product:     p,
			StockStatus: domain.ClassifyStockLevel(p),
		})
	}

	s.logger.Info("Catálogo listado com sucesso.", map[string]interface{}{"total": len(views)})
	return views, nil
}

// AdjustStock aplica um ajuste manual ao estoque disponível de um produto.
func (s *Service) AdjustStock(ctx domain.Context, adjustment domain.StockAdjustmentRequest) (domain.Product, error) {
	s.logger.Debug("Iniciando ajuste de estoque no serviço.", map[string]interface{}{
		"product_id": adjustment.ProductID,
		"delta":      adjustment.Delta,
	})

	if adjustment.Delta == 0 {
		return domain.Product{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}
	if _, err := uuid.Parse(adjustment.ProductID); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	// Casting e Configuração do Contexto (Converte domain.Context para context.Context)
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para AdjustStock", nil)
	}

	product, err := s.stockRepo.AdjustStock(ctxGo, adjustment)
	if err != nil {
		s.logger.Error("Falha ao ajustar estoque no repositório.", err)
		return domain.Product{}, err // Erros já tipados (NotFound, InvalidQuantity, Conflict, DB)
	}

	s.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{
		"product_id":   product.ID,
		"new_quantity": product.Quantity,
		"new_version":  product.Version,
	})
	return product, nil
}
