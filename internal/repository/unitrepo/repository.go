package unitrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/logger"
)

// UnitRepository implementa as operações CRUD de unidades de distribuição.
type UnitRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUnitRepository cria e retorna uma nova instância do Repositório de Unidades.
func NewUnitRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UnitRepository {
	return &UnitRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CreateUnit insere uma nova unidade no banco de dados.
func (r *UnitRepository) CreateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error) {
	r.logger.Debug("Iniciando CreateUnit no repositório.", map[string]interface{}{"city": unit.City, "district": unit.District})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if unit.ID == "" {
		unit.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	unit.CreatedAt = now
	unit.UpdatedAt = now

	query := `
        INSERT INTO units (id, city, district, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, city, district, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		unit.ID, unit.City, unit.District, unit.CreatedAt, unit.UpdatedAt,
	).Scan(
		&unit.ID, &unit.City, &unit.District, &unit.CreatedAt, &unit.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir unidade no DB.", err)
		return domain.Unit{}, apperror.NewDBError("Falha ao criar unidade", err)
	}

	r.logger.Info("Unidade criada com sucesso.", map[string]interface{}{"id": unit.ID, "city": unit.City})
	return unit, nil
}

// GetUnitByID busca uma unidade pelo ID.
func (r *UnitRepository) GetUnitByID(ctx context.Context, id string) (domain.Unit, error) {
	r.logger.Debug("Iniciando GetUnitByID no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, city, district, created_at, updated_at
        FROM units
        WHERE id = $1`

	var unit domain.Unit
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&unit.ID, &unit.City, &unit.District, &unit.CreatedAt, &unit.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		r.logger.Info("Unidade não encontrada.", map[string]interface{}{"id": id})
		return domain.Unit{}, apperror.NewNotFoundError(fmt.Sprintf("Unidade com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar unidade no DB.", err)
		return domain.Unit{}, apperror.NewDBError("Falha ao buscar unidade", err)
	}

	return unit, nil
}

// GetAllUnits busca todas as unidades, ordenadas por cidade e bairro.
func (r *UnitRepository) GetAllUnits(ctx context.Context) ([]domain.Unit, error) {
	r.logger.Debug("Iniciando GetAllUnits no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, city, district, created_at, updated_at
        FROM units
        ORDER BY city, district`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar GetAllUnits query.", err)
		return nil, apperror.NewDBError("Falha ao buscar todas as unidades", err)
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		var unit domain.Unit
		if err := rows.Scan(&unit.ID, &unit.City, &unit.District, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear unidade na iteração de GetAllUnits.", err)
			return nil, apperror.NewDBError("Falha ao mapear unidades do DB", err)
		}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de unidades.", err)
		return nil, apperror.NewDBError("Erro após iteração de unidades", err)
	}

	r.logger.Info("GetAllUnits concluído com sucesso.", map[string]interface{}{"total_units": len(units)})
	return units, nil
}

// UpdateUnit atualiza uma unidade existente.
func (r *UnitRepository) UpdateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error) {
	r.logger.Debug("Iniciando UpdateUnit no repositório.", map[string]interface{}{"id": unit.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	unit.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE units
        SET city = $1, district = $2, updated_at = $3
        WHERE id = $4
        RETURNING id, city, district, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		unit.City, unit.District, unit.UpdatedAt, unit.ID,
	).Scan(
		&unit.ID, &unit.City, &unit.District, &unit.CreatedAt, &unit.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		r.logger.Info("Unidade não encontrada para atualização.", map[string]interface{}{"id": unit.ID})
		return domain.Unit{}, apperror.NewNotFoundError(fmt.Sprintf("Unidade com ID %s não encontrada para atualização.", unit.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar unidade no DB.", err)
		return domain.Unit{}, apperror.NewDBError("Falha ao atualizar unidade", err)
	}

	r.logger.Info("Unidade atualizada com sucesso.", map[string]interface{}{"id": unit.ID})
	return unit, nil
}

// DeleteUnit remove uma unidade pelo ID.
func (r *UnitRepository) DeleteUnit(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando DeleteUnit no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar unidade do DB.", err)
		return apperror.NewDBError("Falha ao deletar unidade", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após DeleteUnit.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		r.logger.Info("Unidade não encontrada para exclusão.", map[string]interface{}{"id": id})
		return apperror.NewNotFoundError(fmt.Sprintf("Unidade com ID %s não encontrada para exclusão.", id))
	}

	r.logger.Info("Unidade deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}
