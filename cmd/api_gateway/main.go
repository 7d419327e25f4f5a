package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/artho-wallet-ledger/internal/api_gateway"
	"github.com/artho-wallet-ledger/internal/api_gateway/service"
	"github.com/artho-wallet-ledger/internal/config"
	"github.com/artho-wallet-ledger/internal/data/mongo"
	"github.com/artho-wallet-ledger/internal/data/postgres"
	redisstore "github.com/artho-wallet-ledger/internal/data/redis"
	"github.com/artho-wallet-ledger/internal/ledger_engine/components"
	"github.com/artho-wallet-ledger/internal/logger"
	"github.com/artho-wallet-ledger/internal/platform/persistence"
	"github.com/artho-wallet-ledger/internal/platform/security"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	postgresDB.WithRetryPolicy(persistence.RetryPolicy{
		MaxRetries: cfg.Ledger.MaxTxRetries,
		BaseDelay:  cfg.Ledger.RetryBaseDelay,
	})

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := components.Repositories{
		Accounts:    postgres.NewAccountRepository(log, postgresDB),
		Ledger:      postgres.NewTransactionRepository(log, postgresDB),
		Outbox:      postgres.NewOutboxRepository(log, postgresDB),
		Idempotency: postgres.NewIdempotencyRepository(log, postgresDB),
	}
	statementRepo := mongo.NewStatementRepository(log, mongoDB.Database())

	engine := components.CreateLedgerEngine(postgresDB, repos, security.NewPinVerifier(), log, &cfg.Ledger)

	server := api_gateway.NewServer(log, cfg, api_gateway.Dependencies{
		Engine:           engine,
		AccountService:   service.NewAccountService(repos.Accounts),
		StatementService: service.NewStatementService(statementRepo, log),
		Verifier:         security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		ResponseCache:    redisstore.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL),
	})
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// stop taking requests before the stores they use go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
