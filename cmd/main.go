package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"fuzalog/config"
	"fuzalog/internal/pkg/cache"
	"fuzalog/internal/pkg/database"
	"fuzalog/internal/pkg/logger"
	"fuzalog/internal/pkg/middleware"
	"fuzalog/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"fuzalog/internal/api/delivery"
	"fuzalog/internal/api/directory"
	"fuzalog/internal/api/product"
	"fuzalog/internal/api/router"
	"fuzalog/internal/api/unit"
	"fuzalog/internal/api/user"
	"fuzalog/internal/repository/deliveryrepo"
	"fuzalog/internal/repository/directoryrepo"
	"fuzalog/internal/repository/productrepo"
	"fuzalog/internal/repository/stockrepo"
	"fuzalog/internal/repository/unitrepo"
	"fuzalog/internal/repository/userrepo"
	"fuzalog/internal/service/deliveryservice"
	"fuzalog/internal/service/directoryservice"
	"fuzalog/internal/service/productservice"
	"fuzalog/internal/service/unitservice"
	"fuzalog/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço FuzaLog...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// Sem .env seguimos em frente: as variáveis essenciais podem
		// estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	stockRepo := stockrepo.NewStockRepository(db, cacheClient, cfg.DBTimeout, log)
	deliveryRepo := deliveryrepo.NewDeliveryRepository(db, cacheClient, cfg.DBTimeout, log)
	unitRepo := unitrepo.NewUnitRepository(db, cfg.DBTimeout, log)
	directoryRepo := directoryrepo.NewDirectoryRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	productSvc := productservice.NewService(productRepo, stockRepo, log)
	deliverySvc := deliveryservice.NewService(deliveryRepo, productRepo, directoryRepo, unitRepo, log)
	unitSvc := unitservice.NewService(unitRepo, log)
	directorySvc := directoryservice.NewService(directoryRepo, log)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	productHandler := product.NewHandler(productSvc, log)
	deliveryHandler := delivery.NewHandler(deliverySvc, log)
	unitHandler := unit.NewHandler(unitSvc, log)
	directoryHandler := directory.NewHandler(directorySvc, log)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor

	r := router.NewRouter(productHandler, deliveryHandler, unitHandler, directoryHandler, userHandler, tokenSvc)

	// Rate limiting global por IP (janela fixa no Redis)
	rateLimited := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rateLimited,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor FuzaLog ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
