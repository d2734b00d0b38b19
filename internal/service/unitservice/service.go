package unitservice

import (
	"context"

	"strings"

	"github.com/google/uuid"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// UnitRepository define o contrato que o Serviço de Unidades espera da camada de Persistência.
type UnitRepository interface {
	CreateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error)
	GetUnitByID(ctx context.Context, id string) (domain.Unit, error)
	GetAllUnits(ctx context.Context) ([]domain.Unit, error)
	UpdateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error)
	DeleteUnit(ctx context.Context, id string) error
}

// Service implementa as regras de negócio das unidades de distribuição.
type Service struct {
	repo   UnitRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Unidades.
func NewService(repo UnitRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateUnit cria uma nova unidade após validações de negócio.
func (s *Service) CreateUnit(ctx domain.Context, unit domain.Unit) (domain.Unit, error) {
	s.logger.Debug("Iniciando criação de unidade no serviço.", map[string]interface{}{"city": unit.City, "district": unit.District})

	if err := s.validateUnit(unit); err != nil {
		s.logger.Warn("Falha na validação da unidade.", map[string]interface{}{"city": unit.City, "error": err.Error()})
		return domain.Unit{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateUnit", nil)
	}

	createdUnit, err := s.repo.CreateUnit(ctxGo, unit)
	if err != nil {
		s.logger.Error("Falha ao criar unidade no repositório.", err)
		return domain.Unit{}, apperror.NewInternalError("Falha interna ao criar unidade.", err)
	}

	s.logger.Info("Unidade criada com sucesso.", map[string]interface{}{"id": createdUnit.ID, "city": createdUnit.City})
	return createdUnit, nil
}

// GetUnitByID busca uma unidade pelo ID após validações de formato.
func (s *Service) GetUnitByID(ctx domain.Context, id string) (domain.Unit, error) {
	s.logger.Debug("Iniciando busca de unidade por ID no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de unidade inválido fornecido.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.Unit{}, apperror.NewValidationError("O ID da unidade deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetUnitByID", nil)
	}

	unit, err := s.repo.GetUnitByID(ctxGo, id)
	if err != nil {
		s.logger.Error("Falha ao buscar unidade no repositório.", err)
		return domain.Unit{}, err // Erros do repositório já são NotFoundError ou DBError
	}

	return unit, nil
}

// GetAllUnits busca todas as unidades.
func (s *Service) GetAllUnits(ctx domain.Context) ([]domain.Unit, error) {
	s.logger.Debug("Iniciando busca de todas as unidades no serviço.", nil)

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetAllUnits", nil)
	}

	units, err := s.repo.GetAllUnits(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao buscar todas as unidades no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao buscar unidades.", err)
	}

	return units, nil
}

// UpdateUnit atualiza uma unidade existente.
func (s *Service) UpdateUnit(ctx domain.Context, unit domain.Unit) (domain.Unit, error) {
	s.logger.Debug("Iniciando atualização de unidade no serviço.", map[string]interface{}{"id": unit.ID})

	if _, err := uuid.Parse(unit.ID); err != nil {
		s.logger.Warn("ID de unidade inválido fornecido para atualização.", map[string]interface{}{"id": unit.ID, "error": err.Error()})
		return domain.Unit{}, apperror.NewValidationError("O ID da unidade deve ser um UUID válido.")
	}

	if err := s.validateUnit(unit); err != nil {
		s.logger.Warn("Falha na validação da unidade para atualização.", map[string]interface{}{"city": unit.City, "error": err.Error()})
		return domain.Unit{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para UpdateUnit", nil)
	}

	updatedUnit, err := s.repo.UpdateUnit(ctxGo, unit)
	if err != nil {
		s.logger.Error("Falha ao atualizar unidade no repositório.", err)
		return domain.Unit{}, err // Erros do repositório já são NotFoundError ou DBError
	}

	s.logger.Info("Unidade atualizada com sucesso.", map[string]interface{}{"id": updatedUnit.ID})
	return updatedUnit, nil
}

// DeleteUnit remove uma unidade.
func (s *Service) DeleteUnit(ctx domain.Context, id string) error {
	s.logger.Debug("Iniciando exclusão de unidade no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de unidade inválido fornecido para exclusão.", map[string]interface{}{"id": id, "error": err.Error()})
		return apperror.NewValidationError("O ID da unidade deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para DeleteUnit", nil)
	}

	err := s.repo.DeleteUnit(ctxGo, id)
	if err != nil {
		s.logger.Error("Falha ao deletar unidade no repositório.", err)
		return err // Erros do repositório já são NotFoundError ou DBError
	}

	s.logger.Info("Unidade deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// validateUnit é uma função auxiliar para validar cidade e bairro da unidade.
func (s *Service) validateUnit(unit domain.Unit) error {
	if strings.TrimSpace(unit.City) == "" {
		return apperror.NewValidationError("A cidade da unidade não pode ser vazia.")
	}
	if strings.TrimSpace(unit.District) == "" {
		return apperror.NewValidationError("O bairro da unidade não pode ser vazio.")
	}
	if len(unit.City) > 100 || len(unit.District) > 100 {
		return apperror.NewValidationError("Cidade e bairro devem ter no máximo 100 caracteres.")
	}
	return nil
}
