package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/finbooks/ledger/internal/adapter/http"
	"github.com/finbooks/ledger/internal/adapter/http/handler"
	"github.com/finbooks/ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/finbooks/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/finbooks/ledger/internal/adapter/repository/redis"
	"github.com/finbooks/ledger/internal/infrastructure/config"
	"github.com/finbooks/ledger/internal/infrastructure/eventpublisher"
	"github.com/finbooks/ledger/internal/infrastructure/logger"
	"github.com/finbooks/ledger/internal/infrastructure/metrics"
	"github.com/finbooks/ledger/internal/infrastructure/postgres"
	"github.com/finbooks/ledger/internal/infrastructure/redis"
	"github.com/finbooks/ledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	matchCfg, err := cfg.MatchConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid matching configuration")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	invoiceRepo := postgresRepo.NewInvoiceRepository(pool)
	bankTxRepo := postgresRepo.NewBankTransactionRepository(pool)
	sequenceRepo := postgresRepo.NewSequenceRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	numbering := usecase.NewNumberingAuthority(sequenceRepo)
	accountUC := usecase.NewAccountUseCase(accountRepo, cache, idGen)
	entryUC := usecase.NewEntryUseCase(txManager, entryRepo, ledgerRepo, accountRepo, outboxRepo, auditRepo, numbering, idGen, retrier)
	reconUC := usecase.NewReconciliationUseCase(
		txManager,
		invoiceRepo,
		bankTxRepo,
		entryRepo,
		outboxRepo,
		auditRepo,
		numbering,
		idGen,
		matchCfg,
		usecase.ReconciliationAccounts{
			BankAccountID:       cfg.BankAccountID,
			ReceivableAccountID: cfg.ReceivableAccountID,
		},
	)

	// Initialize handlers
	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	accountHandler := handler.NewAccountHandler(accountUC, appMetrics)
	entryHandler := handler.NewEntryHandler(entryUC, appMetrics)
	reconHandler := handler.NewReconciliationHandler(reconUC, matchCfg, appMetrics)
	ledgerHandler := handler.NewLedgerHandler(entryUC)
	auditHandler := handler.NewAuditHandler(auditRepo)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        accountHandler,
		EntryHandler:          entryHandler,
		ReconciliationHandler: reconHandler,
		LedgerHandler:         ledgerHandler,
		AuditHandler:          auditHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:                appLogger,
	})

	// Start outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient, "ledger.events"),
		Logger:     appLogger,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
