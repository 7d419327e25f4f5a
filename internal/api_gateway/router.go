package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/artho-wallet-ledger/internal/api_gateway/handler"
	"github.com/artho-wallet-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

const banner = "wallet ledger is running"

// routeDeps is everything setupRouter hangs off the engine
type routeDeps struct {
	accountHandler *handler.AccountHandler
	walletHandler  *handler.WalletHandler
	verifier       middleware.CredentialVerifier
	responseCache  middleware.ResponseCache
	idempotencyTTL time.Duration
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, deps routeDeps) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all authenticated
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(deps.verifier))
	v1.Use(middleware.Idempotency(deps.responseCache, deps.idempotencyTTL, logger))
	{
		v1.POST("/transfers", deps.walletHandler.Send)

		cashIn := v1.Group("/cash-in-requests")
		{
			cashIn.POST("", deps.walletHandler.SubmitCashIn)
			cashIn.POST("/accept", deps.walletHandler.AcceptCashIn)
		}
		v1.GET("/agents/:mobile/cash-in-requests", deps.walletHandler.ListCashIn)

		v1.POST("/cash-outs", deps.walletHandler.CashOut)

		accounts := v1.Group("/accounts")
		{
			accounts.GET("/me", deps.accountHandler.Me)
			accounts.GET("/me/statement", deps.accountHandler.Statement)
			accounts.GET("/:mobile/history", deps.walletHandler.History)
		}
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, banner)
	})

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
