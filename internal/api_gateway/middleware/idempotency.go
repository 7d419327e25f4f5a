package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	redisstore "github.com/artho-wallet-ledger/internal/data/redis"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"

	idempotentReplayKey = "idempotent_replay"
)

// ResponseCache stores finished responses per idempotency key
type ResponseCache interface {
	Get(ctx context.Context, key string) (*redisstore.CachedResponse, error)
	Save(ctx context.Context, key string, resp *redisstore.CachedResponse) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency replays the stored response of a request already answered under
// the same Idempotency-Key and rejects a concurrent duplicate with
// REQUEST_IN_PROGRESS. Requests without a key pass straight through; whether a
// key is mandatory is decided by the ledger operation itself.
//
// The cache only shortcuts retries. Exactly-once application is enforced by
// the idempotency record committed with the ledger unit, so a cache outage
// degrades to that path instead of failing the request.
func Idempotency(cache ResponseCache, lockTTL time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		callerID, authenticated := CallerID(c)
		if key == "" || !authenticated {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := callerID.String() + ":" + key
		fingerprint := c.Request.Method + " " + c.FullPath()
		log := logger.With("idempotency_key", key, "correlation_id", GetCorrelationID(c))

		cached, err := cache.Get(ctx, cacheKey)
		if err != nil {
			log.Warn("Idempotency cache unavailable, continuing without it", "error", err)
			c.Next()
			return
		}
		if cached != nil {
			if cached.Fingerprint != fingerprint {
				AbortWithError(c, shared.ErrIdempotencyKeyReused)
				return
			}
			replay(c, cached)
			return
		}

		reserved, err := cache.Reserve(ctx, cacheKey, lockTTL)
		if err != nil {
			log.Warn("Idempotency reservation failed, continuing without it", "error", err)
			c.Next()
			return
		}
		if !reserved {
			AbortWithError(c, shared.ErrRequestInProgress)
			return
		}
		defer func() {
			// the request context may already be cancelled
			if err := cache.Release(context.WithoutCancel(ctx), cacheKey); err != nil {
				log.Warn("Failed to release idempotency reservation", "error", err)
			}
		}()

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := c.Writer.Status()
		if !definiteOutcome(status) {
			return
		}
		err = cache.Save(context.WithoutCancel(ctx), cacheKey, &redisstore.CachedResponse{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			Fingerprint: fingerprint,
		})
		if err != nil {
			log.Warn("Failed to cache idempotent response", "error", err)
		}
	}
}

// definiteOutcome excludes server failures and timeouts; retrying those must reach the ledger again
func definiteOutcome(status int) bool {
	return status < http.StatusInternalServerError
}

func replay(c *gin.Context, cached *redisstore.CachedResponse) {
	c.Set(idempotentReplayKey, true)
	c.Header(IdempotencyReplayedHeader, "true")
	contentType := cached.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(cached.StatusCode, contentType, cached.Body)
	c.Abort()
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
