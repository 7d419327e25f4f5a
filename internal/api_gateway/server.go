package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/artho-wallet-ledger/internal/api_gateway/handler"
	"github.com/artho-wallet-ledger/internal/api_gateway/middleware"
	"github.com/artho-wallet-ledger/internal/api_gateway/service"
	"github.com/artho-wallet-ledger/internal/config"
	ledgerservice "github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer is built on
type Dependencies struct {
	Engine           *ledgerservice.Engine
	AccountService   service.AccountService
	StatementService service.StatementService
	Verifier         middleware.CredentialVerifier
	ResponseCache    middleware.ResponseCache
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, deps Dependencies) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, routeDeps{
		accountHandler: handler.NewAccountHandler(log, deps.AccountService, deps.StatementService),
		walletHandler:  handler.NewWalletHandler(log, deps.Engine),
		verifier:       deps.Verifier,
		responseCache:  deps.ResponseCache,
		// a reservation must outlive the slowest request it guards
		idempotencyTTL: cfg.Server.WriteTimeout,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
