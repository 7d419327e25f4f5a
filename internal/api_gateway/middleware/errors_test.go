package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{shared.ErrAmountTooSmall, http.StatusBadRequest},
		{shared.ErrInsufficientBalance, http.StatusBadRequest},
		{shared.ErrReceiverNotFound, http.StatusNotFound},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{shared.ErrInvalidCredential.WithCause(errors.New("expired")), http.StatusUnauthorized},
		{shared.ErrInvalidPin, http.StatusForbidden},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrAlreadyAccepted, http.StatusConflict},
		{shared.OutcomeUnknown(errors.New("deadline")), http.StatusGatewayTimeout},
		{shared.Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody_HidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(CorrelationIDKey, "corr-1")

	body := ErrorBody(c, shared.Internal(errors.New("password authentication failed for user wallet")))

	assert.Equal(t, gin.H{"code": "INTERNAL", "message": "internal error"}, body["error"])
	assert.Equal(t, "corr-1", body["correlation_id"])
}
