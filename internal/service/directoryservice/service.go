package directoryservice

import (
	"context"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// DirectoryRepository define o contrato da camada de Persistência dos
// diretórios de referência (entregadores e veículos).
type DirectoryRepository interface {
	ListDeliveryPeople(ctx context.Context) ([]domain.DeliveryPerson, error)
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}

// Service expõe as consultas de diretório usadas na montagem de cargas.
// São dados somente leitura, mantidos por migração.
type Service struct {
	repo   DirectoryRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Diretórios.
func NewService(repo DirectoryRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListDeliveryPeople devolve todos os entregadores cadastrados.
func (s *Service) ListDeliveryPeople(ctx domain.Context) ([]domain.DeliveryPerson, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ListDeliveryPeople", nil)
	}

	people, err := s.repo.ListDeliveryPeople(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao listar entregadores no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar entregadores.", err)
	}
	return people, nil
}

// ListVehicles devolve todos os veículos cadastrados.
func (s *Service) ListVehicles(ctx domain.Context) ([]domain.Vehicle, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para ListVehicles", nil)
	}

	vehicles, err := s.repo.ListVehicles(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao listar veículos no repositório.", err)
		return nil, apperror.NewInternalError("Falha interna ao listar veículos.", err)
	}
	return vehicles, nil
}
