package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Recovery middleware catches panics, logs them with stack traces, and answers
// with the INTERNAL error envelope carrying the correlation ID when known
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", GetCorrelationID(c),
				)

				AbortWithError(c, shared.Internal(fmt.Errorf("panic: %v", r)))
			}
		}()

		c.Next()
	}
}
