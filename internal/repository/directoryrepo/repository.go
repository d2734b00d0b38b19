package directoryrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// DirectoryRepository expõe os diretórios de referência da operação:
// entregadores e veículos. São listas de consulta por ID, sem contrato de
// mutação. O cadastro acontece por migração/seed.
type DirectoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewDirectoryRepository cria e retorna uma nova instância do Repositório de Diretórios.
func NewDirectoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *DirectoryRepository {
	return &DirectoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindDeliveryPersonByID busca um entregador pelo ID.
func (r *DirectoryRepository) FindDeliveryPersonByID(ctx context.Context, id string) (domain.DeliveryPerson, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var p domain.DeliveryPerson
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, name, initials FROM delivery_people WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Initials)

	if err == sql.ErrNoRows {
		return domain.DeliveryPerson{}, apperror.NewNotFoundError(fmt.Sprintf("Entregador com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar entregador no DB.", err)
		return domain.DeliveryPerson{}, apperror.NewDBError("Falha ao buscar entregador", err)
	}
	return p, nil
}

// ListDeliveryPeople devolve todos os entregadores cadastrados.
func (r *DirectoryRepository) ListDeliveryPeople(ctx context.Context) ([]domain.DeliveryPerson, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT id, name, initials FROM delivery_people ORDER BY name`)
	if err != nil {
		r.logger.Error("Falha ao listar entregadores.", err)
		return nil, apperror.NewDBError("Falha ao listar entregadores", err)
	}
	defer rows.Close()

	var people []domain.DeliveryPerson
	for rows.Next() {
		var p domain.DeliveryPerson
		if err := rows.Scan(&p.ID, &p.Name, &p.Initials); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear entregadores do DB", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de entregadores", err)
	}
	return people, nil
}

// FindVehicleByID busca um veículo pelo ID.
func (r *DirectoryRepository) FindVehicleByID(ctx context.Context, id string) (domain.Vehicle, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var v domain.Vehicle
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, model, plate FROM vehicles WHERE id = $1`, id,
	).Scan(&v.ID, &v.Model, &v.Plate)

	if err == sql.ErrNoRows {
		return domain.Vehicle{}, apperror.NewNotFoundError(fmt.Sprintf("Veículo com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar veículo no DB.", err)
		return domain.Vehicle{}, apperror.NewDBError("Falha ao buscar veículo", err)
	}
	return v, nil
}

// ListVehicles devolve todos os veículos cadastrados.
func (r *DirectoryRepository) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT id, model, plate FROM vehicles ORDER BY model`)
	if err != nil {
		r.logger.Error("Falha ao listar veículos.", err)
		return nil, apperror.NewDBError("Falha ao listar veículos", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Model, &v.Plate); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear veículos do DB", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de veículos", err)
	}
	return vehicles, nil
}
