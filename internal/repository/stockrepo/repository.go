package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/cache"
	"fuzalog/internal/pkg/logger"
)

// StockRepository é o único ponto de mutação do estoque disponível fora do
// ciclo de vida das cargas: ajustes manuais (reposição, acerto de inventário).
// Cada chamada é uma transação de banco com bloqueio de linha e controle de
// concorrência otimista, para que ajustes concorrentes não percam atualizações.
type StockRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// AdjustStock aplica um delta à quantidade disponível de um produto.
// Falha com NotFoundError se o produto não existir e com InvalidQuantityError
// se o resultado ficasse negativo. O lançamento correspondente entra no livro
// de movimentações na mesma transação.
func (r *StockRepository) AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.Product, error) {
	r.logger.Debug("Iniciando ajuste de estoque no repositório.", map[string]interface{}{
		"product_id": adjustment.ProductID,
		"delta":      adjustment.Delta,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para ajuste de estoque.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Obter o produto atual (FOR UPDATE bloqueia a linha na transação).
	//    É crucial selecionar a 'version' atual aqui.
	var current domain.Product
	querySelect := `
        SELECT id, name, quantity, price, version, created_at, updated_at
        FROM products
        WHERE id = $1 FOR UPDATE`

	err = tx.QueryRowContext(ctxTimeout, querySelect, adjustment.ProductID).Scan(
		&current.ID, &current.Name, &current.Quantity, &current.Price,
		&current.Version, &current.CreatedAt, &current.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para ajuste de estoque.", adjustment.ProductID))
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar produto para ajuste.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto para ajuste", err)
	}

	// 2. Aplicar o delta e barrar quantidade negativa.
	newQuantity := current.Quantity + adjustment.Delta
	if newQuantity < 0 {
		r.logger.Warn("Tentativa de ajustar estoque para quantidade negativa.", map[string]interface{}{
			"product_id":       adjustment.ProductID,
			"current_quantity": current.Quantity,
			"delta":            adjustment.Delta,
		})
		return domain.Product{}, apperror.NewInvalidQuantityError("O ajuste resultaria em quantidade de estoque negativa.")
	}

	// 3. Atualizar com OCC (checa a versão antiga).
	queryUpdate := `
        UPDATE products
        SET quantity = $1, version = $2, updated_at = $3
        WHERE id = $4 AND version = $5`

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctxTimeout, queryUpdate,
		newQuantity, current.Version+1, now, adjustment.ProductID, current.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar quantidade do produto.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao atualizar estoque", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC).", map[string]interface{}{
			"product_id":       adjustment.ProductID,
			"expected_version": current.Version,
		})
		return domain.Product{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	// 4. Registrar o lançamento no livro de movimentações.
	queryMovement := `
        INSERT INTO stock_movements (id, product_id, kind, quantity, created_at)
        VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctxTimeout, queryMovement,
		uuid.NewString(), adjustment.ProductID, "adjustment", adjustment.Delta, now,
	); err != nil {
		r.logger.Error("Falha ao registrar movimentação de estoque.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao registrar movimentação", err)
	}

	// 5. Commitar a transação.
	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de ajuste de estoque.", commitErr)
		return domain.Product{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	// Invalida a entrada de cache do produto (leituras usam Cache-Aside).
	if err := r.Cache.Delete(ctxTimeout, "product:"+adjustment.ProductID); err != nil && err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao invalidar cache após ajuste.", map[string]interface{}{"product_id": adjustment.ProductID, "error": err.Error()})
	}

	current.Quantity = newQuantity
	current.Version++
	current.UpdatedAt = now
	r.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{
		"product_id":   adjustment.ProductID,
		"new_quantity": newQuantity,
		"new_version":  current.Version,
	})
	return current, nil
}
