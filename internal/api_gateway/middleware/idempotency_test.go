package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisstore "github.com/artho-wallet-ledger/internal/data/redis"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idempotencyHarness struct {
	server *miniredis.Miniredis
	store  *redisstore.IdempotencyStore
	router *gin.Engine
	calls  atomic.Int32
	caller uuid.UUID
	status int
}

func newIdempotencyHarness(t *testing.T) *idempotencyHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &idempotencyHarness{
		server: server,
		store:  redisstore.NewIdempotencyStore(client, time.Hour),
		caller: uuid.New(),
		status: http.StatusCreated,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	h.router = gin.New()
	h.router.Use(CorrelationID(), func(c *gin.Context) {
		c.Set(CallerIDKey, h.caller)
		c.Next()
	}, Idempotency(h.store, time.Minute, logger))
	handler := func(c *gin.Context) {
		n := h.calls.Add(1)
		c.JSON(h.status, gin.H{"data": gin.H{"call": n}})
	}
	h.router.POST("/transfers", handler)
	h.router.POST("/cash-outs", handler)
	return h
}

func (h *idempotencyHarness) post(path, key string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyMiddleware(t *testing.T) {
	t.Run("ReplaysStoredResponse", func(t *testing.T) {
		h := newIdempotencyHarness(t)

		first := h.post("/transfers", "k1")
		second := h.post("/transfers", "k1")

		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))
		assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
		assert.Equal(t, int32(1), h.calls.Load())
	})

	t.Run("NoKeyPassesThrough", func(t *testing.T) {
		h := newIdempotencyHarness(t)

		h.post("/transfers", "")
		h.post("/transfers", "")
		assert.Equal(t, int32(2), h.calls.Load())
	})

	t.Run("KeyOnAnotherRouteIsReuse", func(t *testing.T) {
		h := newIdempotencyHarness(t)

		h.post("/transfers", "k1")
		rr := h.post("/cash-outs", "k1")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "IDEMPOTENCY_KEY_REUSED")
		assert.Equal(t, int32(1), h.calls.Load())
	})

	t.Run("KeysAreScopedPerCaller", func(t *testing.T) {
		h := newIdempotencyHarness(t)

		h.post("/transfers", "k1")
		h.caller = uuid.New()
		rr := h.post("/transfers", "k1")

		assert.Empty(t, rr.Header().Get(IdempotencyReplayedHeader))
		assert.Equal(t, int32(2), h.calls.Load())
	})

	t.Run("InFlightDuplicateIsRejected", func(t *testing.T) {
		h := newIdempotencyHarness(t)
		ok, err := h.store.Reserve(context.Background(), h.caller.String()+":k1", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		rr := h.post("/transfers", "k1")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "REQUEST_IN_PROGRESS")
		assert.Equal(t, int32(0), h.calls.Load())
	})

	t.Run("ServerErrorsAreNotCached", func(t *testing.T) {
		h := newIdempotencyHarness(t)
		h.status = http.StatusGatewayTimeout

		h.post("/transfers", "k1")
		h.status = http.StatusCreated
		rr := h.post("/transfers", "k1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, rr.Header().Get(IdempotencyReplayedHeader))
		assert.Equal(t, int32(2), h.calls.Load())
	})

	t.Run("ReservationIsReleased", func(t *testing.T) {
		h := newIdempotencyHarness(t)
		h.status = http.StatusInternalServerError

		h.post("/transfers", "k1")

		ok, err := h.store.Reserve(context.Background(), h.caller.String()+":k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CacheOutageFallsThrough", func(t *testing.T) {
		h := newIdempotencyHarness(t)
		h.server.SetError("LOADING")

		rr := h.post("/transfers", "k1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, int32(1), h.calls.Load())
	})
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*redisstore.CachedResponse, error) {
	return nil, nil
}

func (failingCache) Save(context.Context, string, *redisstore.CachedResponse) error {
	return errors.New("read only replica")
}

func (failingCache) Reserve(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (failingCache) Release(context.Context, string) error {
	return nil
}

func TestIdempotencyMiddleware_SaveFailureKeepsResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(CallerIDKey, uuid.New())
		c.Next()
	}, Idempotency(failingCache{}, time.Minute, slog.New(slog.NewJSONHandler(io.Discard, nil))))
	router.POST("/transfers", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"data": "ok"})
	})

	req, _ := http.NewRequest(http.MethodPost, "/transfers", nil)
	req.Header.Set(IdempotencyKeyHeader, "k1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data":"ok"}`, rr.Body.String())
}
