package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"fuzalog/internal/api/delivery"
	"fuzalog/internal/api/directory"
	"fuzalog/internal/api/product"
	"fuzalog/internal/api/unit"
	"fuzalog/internal/api/user"
	"fuzalog/internal/domain"
	"fuzalog/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	productHandler *product.Handler,
	deliveryHandler *delivery.Handler,
	unitHandler *unit.Handler,
	directoryHandler *directory.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas de Autenticação (públicas) ---
	mux.HandleFunc("/v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("/v1/login", userHandler.LoginUserHandler)

	// --- 3. Pool de Estoque ---
	// GET /v1/products (listar com filtro) e GET /v1/products/{id}
	mux.HandleFunc("/v1/products", auth(productHandler.ListProductsHandler))
	mux.HandleFunc("/v1/products/", auth(productHandler.GetProductByIDHandler))

	// POST /v1/stock/adjust (ajuste manual, restrito a administradores)
	mux.HandleFunc("/v1/stock/adjust", auth(adminOnly(productHandler.AdjustStockHandler)))

	// --- 4. Cargas ---
	// GET/POST /v1/deliveries e rotas por ID (busca, edição, finalização)
	mux.HandleFunc("/v1/deliveries", auth(deliveryHandler.CollectionHandler))
	mux.HandleFunc("/v1/deliveries/", auth(deliveryHandler.ItemHandler))

	// --- 5. Unidades de Distribuição ---
	// Leitura exige autenticação; mutações exigem admin.
	adminMutations := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				auth(next)(w, r)
				return
			}
			auth(adminOnly(next))(w, r)
		}
	}
	mux.HandleFunc("/v1/units", adminMutations(unitHandler.CollectionHandler))
	mux.HandleFunc("/v1/units/", adminMutations(unitHandler.ItemHandler))

	// --- 6. Diretórios de Referência ---
	mux.HandleFunc("/v1/delivery-people", auth(directoryHandler.ListDeliveryPeopleHandler))
	mux.HandleFunc("/v1/vehicles", auth(directoryHandler.ListVehiclesHandler))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
