package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fuzalog/internal/domain"
	apperror "fuzalog/internal/errors"
	"fuzalog/internal/pkg/cache"
	"fuzalog/internal/pkg/logger"
)

// Chave de cache para produtos individuais.
const productCacheKey = "product:%s"

// ProductRepository implementa a interface domain.ProductRepository: a porta
// de consulta do pool de estoque. Leituras pontuais usam Cache-Aside (Redis).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx domain.Context, id string) (domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// --- 1. Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxGo, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			// Cache HIT
			return product, nil
		}
		// Desserialização falhou: cai para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): loga e segue para o DB.
		r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}

	// --- 2. Busca no Banco de Dados (PostgreSQL) ---
	query := `
        SELECT id, name, quantity, price, version, created_at, updated_at
        FROM products
        WHERE id = $1`

	row := r.DB.QueryRowContext(ctxGo, query, id)
	err = row.Scan(
		&product.ID,
		&product.Name,
		&product.Quantity,
		&product.Price,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// O Serviço receberá isso e o Handler o mapeará para 404.
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- 3. Cache-Aside (WRITE) ---
	// Popula o cache para as próximas requisições. Falha aqui não é fatal.
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxGo, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll devolve o catálogo inteiro, ordenado por nome.
// Listagens não passam pelo cache: o filtro de busca é aplicado em memória
// pela camada de serviço e o catálogo é pequeno.
func (r *ProductRepository) FindAll(ctx domain.Context) ([]domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(ctx.(context.Context), r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, quantity, price, version, created_at, updated_at
        FROM products
        ORDER BY name`

	rows, err := r.DB.QueryContext(ctxGo, query)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de produtos.", err)
		return nil, apperror.NewDBError("Falha ao buscar produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.Price, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear produto na iteração de FindAll.", err)
			return nil, apperror.NewDBError("Falha ao mapear produtos do DB", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de produtos", err)
	}

	return products, nil
}
