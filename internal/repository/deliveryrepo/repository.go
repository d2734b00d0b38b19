package deliveryrepo

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

// DeliveryRepository implementa a interface domain.DeliveryRepository.
//
// Cada operação de escrita acopla a mudança do manifesto às transações de
// estoque correspondentes em UMA transação de banco: ou a carga e todos os
// seus efeitos de estoque são persistidos juntos, ou nada é. É essa camada
// que garante a atomicidade da finalização.
type DeliveryRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewDeliveryRepository cria e retorna uma nova instância do Repositório de Cargas.
func NewDeliveryRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *DeliveryRepository {
	return &DeliveryRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create persiste uma nova carga com o manifesto e debita o estoque dos
// produtos comprometidos, tudo na mesma transação.
func (r *DeliveryRepository) Create(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	r.logger.Debug("Iniciando Create de carga no repositório.", map[string]interface{}{"delivery_id": delivery.ID, "products": len(delivery.Products)})

	ctxTimeout, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Delivery{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	delivery.CreatedAt = now
	delivery.UpdatedAt = now

	const deliverySQL = `
        INSERT INTO deliveries (id, delivery_person_id, delivery_person_name, delivery_person_initials,
                                unit_id, unit_city, unit_district,
                                vehicle_id, vehicle_model, vehicle_plate,
                                departure_time, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err = tx.ExecContext(ctxTimeout, deliverySQL,
		delivery.ID,
		delivery.DeliveryPerson.ID, delivery.DeliveryPerson.Name, delivery.DeliveryPerson.Initials,
		delivery.Unit.ID, delivery.Unit.City, delivery.Unit.District,
		delivery.Vehicle.ID, delivery.Vehicle.Model, delivery.Vehicle.Plate,
		delivery.DepartureTime, delivery.Status, delivery.CreatedAt, delivery.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir carga no DB.", err)
		return domain.Delivery{}, apperror.NewDBError("Falha ao criar carga", err)
	}

	if err := r.insertManifest(ctxTimeout, tx, delivery.ID, delivery.Products); err != nil {
		return domain.Delivery{}, err
	}

	if err := r.applyStockTransactions(ctxTimeout, tx, transactions); err != nil {
		return domain.Delivery{}, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de criação de carga.", commitErr)
		return domain.Delivery{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.invalidateProductCache(ctxTimeout, transactions)
	r.logger.Info("Carga criada com sucesso.", map[string]interface{}{"delivery_id": delivery.ID, "status": delivery.Status})
	return delivery, nil
}

// FindByID busca uma carga e o seu manifesto pelo ID.
func (r *DeliveryRepository) FindByID(ctx domain.Context, id string) (domain.Delivery, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, delivery_person_id, delivery_person_name, delivery_person_initials,
               unit_id, unit_city, unit_district,
               vehicle_id, vehicle_model, vehicle_plate,
               departure_time, status, created_at, updated_at
        FROM deliveries
        WHERE id = $1`

	var d domain.Delivery
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&d.ID,
		&d.DeliveryPerson.ID, &d.DeliveryPerson.Name, &d.DeliveryPerson.Initials,
		&d.Unit.ID, &d.Unit.City, &d.Unit.District,
		&d.Vehicle.ID, &d.Vehicle.Model, &d.Vehicle.Plate,
		&d.DepartureTime, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Delivery{}, apperror.NewNotFoundError(fmt.Sprintf("Carga com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar carga no DB.", err)
		return domain.Delivery{}, apperror.NewDBError("Falha ao buscar carga", err)
	}

	products, err := r.findManifest(ctxTimeout, id)
	if err != nil {
		return domain.Delivery{}, err
	}
	d.Products = products

	return d, nil
}

// FindAll devolve todas as cargas com os manifestos, mais recentes primeiro.
func (r *DeliveryRepository) FindAll(ctx domain.Context) ([]domain.Delivery, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, delivery_person_id, delivery_person_name, delivery_person_initials,
               unit_id, unit_city, unit_district,
               vehicle_id, vehicle_model, vehicle_plate,
               departure_time, status, created_at, updated_at
        FROM deliveries
        ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de cargas.", err)
		return nil, apperror.NewDBError("Falha ao buscar cargas", err)
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(
			&d.ID,
			&d.DeliveryPerson.ID, &d.DeliveryPerson.Name, &d.DeliveryPerson.Initials,
			&d.Unit.ID, &d.Unit.City, &d.Unit.District,
			&d.Vehicle.ID, &d.Vehicle.Model, &d.Vehicle.Plate,
			&d.DepartureTime, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			r.logger.Error("Falha ao mapear carga na iteração de FindAll.", err)
			return nil, apperror.NewDBError("Falha ao mapear cargas do DB", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de cargas", err)
	}

	for i := range deliveries {
		products, err := r.findManifest(ctxTimeout, deliveries[i].ID)
		if err != nil {
			return nil, err
		}
		deliveries[i].Products = products
	}

	return deliveries, nil
}

// UpdateManifest substitui o manifesto de uma carga não finalizada e aplica
// as transações de estoque do commit de edição na mesma transação de banco.
func (r *DeliveryRepository) UpdateManifest(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	r.logger.Debug("Iniciando UpdateManifest no repositório.", map[string]interface{}{"delivery_id": delivery.ID, "transactions": len(transactions)})

	ctxTimeout, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Delivery{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	status, err := r.lockStatus(ctxTimeout, tx, delivery.ID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if status == domain.StatusFinalized {
		return domain.Delivery{}, apperror.NewIllegalStateError(fmt.Sprintf("A carga %s já foi finalizada e não pode ser editada.", delivery.ID))
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM delivery_products WHERE delivery_id = $1`, delivery.ID); err != nil {
		r.logger.Error("Falha ao limpar manifesto anterior.", err)
		return domain.Delivery{}, apperror.NewDBError("Falha ao substituir manifesto", err)
	}
	if err := r.insertManifest(ctxTimeout, tx, delivery.ID, delivery.Products); err != nil {
		return domain.Delivery{}, err
	}

	delivery.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctxTimeout, `UPDATE deliveries SET updated_at = $1 WHERE id = $2`, delivery.UpdatedAt, delivery.ID); err != nil {
		return domain.Delivery{}, apperror.NewDBError("Falha ao atualizar carga", err)
	}

	if err := r.applyStockTransactions(ctxTimeout, tx, transactions); err != nil {
		return domain.Delivery{}, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de edição de carga.", commitErr)
		return domain.Delivery{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.invalidateProductCache(ctxTimeout, transactions)
	r.logger.Info("Manifesto da carga atualizado com sucesso.", map[string]interface{}{"delivery_id": delivery.ID, "products": len(delivery.Products)})
	return delivery, nil
}

// Finalize marca a carga como finalizada e aplica as transações de retorno e
// venda. A finalização é atômica: todos os movimentos commitam juntos ou a
// operação falha sem efeito parcial. Uma carga já finalizada é rejeitada.
func (r *DeliveryRepository) Finalize(ctx domain.Context, delivery domain.Delivery, transactions []domain.StockTransaction) (domain.Delivery, error) {
	r.logger.Debug("Iniciando Finalize no repositório.", map[string]interface{}{"delivery_id": delivery.ID, "transactions": len(transactions)})

	ctxTimeout, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Delivery{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	status, err := r.lockStatus(ctxTimeout, tx, delivery.ID)
	if err != nil {
		return domain.Delivery{}, err
	}
	if status == domain.StatusFinalized {
		return domain.Delivery{}, apperror.NewIllegalStateError(fmt.Sprintf("A carga %s já foi finalizada.", delivery.ID))
	}

	if err := r.applyStockTransactions(ctxTimeout, tx, transactions); err != nil {
		return domain.Delivery{}, err
	}

	delivery.Status = domain.StatusFinalized
	delivery.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE deliveries SET status = $1, updated_at = $2 WHERE id = $3`,
		delivery.Status, delivery.UpdatedAt, delivery.ID,
	); err != nil {
		r.logger.Error("Falha ao marcar carga como finalizada.", err)
		return domain.Delivery{}, apperror.NewDBError("Falha ao finalizar carga", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de finalização.", commitErr)
		return domain.Delivery{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.invalidateProductCache(ctxTimeout, transactions)
	r.logger.Info("Carga finalizada com sucesso.", map[string]interface{}{"delivery_id": delivery.ID})
	return delivery, nil
}

// --- Auxiliares internos ---

// lockStatus bloqueia a linha da carga e devolve o status atual.
func (r *DeliveryRepository) lockStatus(ctx context.Context, tx *sql.Tx, deliveryID string) (domain.DeliveryStatus, error) {
	var status domain.DeliveryStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM deliveries WHERE id = $1 FOR UPDATE`, deliveryID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", apperror.NewNotFoundError(fmt.Sprintf("Carga com ID %s não encontrada.", deliveryID))
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear carga para escrita.", err)
		return "", apperror.NewDBError("Falha ao buscar carga para escrita", err)
	}
	return status, nil
}

func (r *DeliveryRepository) insertManifest(ctx context.Context, tx *sql.Tx, deliveryID string, products []domain.DeliveryProduct) error {
	const productSQL = `
        INSERT INTO delivery_products (delivery_id, product_id, name, quantity, position)
        VALUES ($1,$2,$3,$4,$5)`

	for i, p := range products {
		if _, err := tx.ExecContext(ctx, productSQL, deliveryID, p.ID, p.Name, p.Quantity, i); err != nil {
			r.logger.Error("Falha ao inserir linha do manifesto.", err)
			return apperror.NewDBError("Falha ao inserir manifesto", err)
		}
	}
	return nil
}

func (r *DeliveryRepository) findManifest(ctx context.Context, deliveryID string) ([]domain.DeliveryProduct, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT product_id, name, quantity
        FROM delivery_products
        WHERE delivery_id = $1
        ORDER BY position`, deliveryID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar manifesto", err)
	}
	defer rows.Close()

	var products []domain.DeliveryProduct
	for rows.Next() {
		var p domain.DeliveryProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear manifesto do DB", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração do manifesto", err)
	}
	return products, nil
}

// applyStockTransactions aplica cada transação de estoque dentro da transação
// de banco corrente: atualiza a quantidade do produto conforme o efeito do
// Kind (vendas são apenas registro) e insere o lançamento no livro.
func (r *DeliveryRepository) applyStockTransactions(ctx context.Context, tx *sql.Tx, transactions []domain.StockTransaction) error {
	const movementSQL = `
        INSERT INTO stock_movements (id, product_id, unit_id, delivery_id, kind, quantity, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	now := time.Now().UTC()
	for _, txn := range transactions {
		delta := txn.StockDelta()
		if delta != 0 {
			result, err := tx.ExecContext(ctx, `
                UPDATE products
                SET quantity = quantity + $1, version = version + 1, updated_at = $2
                WHERE id = $3 AND quantity + $1 >= 0`,
				delta, now, txn.ProductID,
			)
			if err != nil {
				r.logger.Error("Falha ao aplicar transação de estoque.", err)
				return apperror.NewDBError("Falha ao aplicar transação de estoque", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
			}
			if rowsAffected == 0 {
				// Produto inexistente ou débito acima do disponível.
				var exists bool
				if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, txn.ProductID).Scan(&exists); err != nil {
					return apperror.NewDBError("Falha ao verificar produto", err)
				}
				if !exists {
					return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para movimentação de estoque.", txn.ProductID))
				}
				return apperror.NewInvalidQuantityError(fmt.Sprintf("A movimentação do produto %s deixaria o estoque negativo.", txn.ProductID))
			}
		}

		unitID := sql.NullString{String: txn.UnitID, Valid: txn.UnitID != ""}
		deliveryID := sql.NullString{String: txn.DeliveryID, Valid: txn.DeliveryID != ""}
		if _, err := tx.ExecContext(ctx, movementSQL,
			uuid.NewString(), txn.ProductID, unitID, deliveryID, txn.Kind, txn.Quantity, now,
		); err != nil {
			r.logger.Error("Falha ao registrar movimentação de estoque.", err)
			return apperror.NewDBError("Falha ao registrar movimentação", err)
		}
	}
	return nil
}

// invalidateProductCache remove do cache os produtos tocados pelas transações.
// Best effort: o TTL do Cache-Aside cobre falhas aqui.
func (r *DeliveryRepository) invalidateProductCache(ctx context.Context, transactions []domain.StockTransaction) {
	seen := map[string]bool{}
	for _, txn := range transactions {
		if seen[txn.ProductID] {
			continue
		}
		seen[txn.ProductID] = true
		if err := r.Cache.Delete(ctx, "product:"+txn.ProductID); err != nil && err != cache.ErrCacheMiss {
			r.logger.Warn("Falha ao invalidar cache de produto.", map[string]interface{}{"product_id": txn.ProductID, "error": err.Error()})
		}
	}
}
