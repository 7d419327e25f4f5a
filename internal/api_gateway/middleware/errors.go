package middleware

import (
	"errors"
	"net/http"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// HTTPStatus maps a wallet error to its response status
func HTTPStatus(err error) int {
	var walletErr *shared.Error
	if !errors.As(err, &walletErr) {
		return http.StatusInternalServerError
	}

	switch walletErr.Kind {
	case shared.ErrorKindValidation, shared.ErrorKindInsufficientFunds:
		return http.StatusBadRequest
	case shared.ErrorKindNotFound:
		return http.StatusNotFound
	case shared.ErrorKindAuth:
		if walletErr.Code == shared.ErrUnauthorized.Code || walletErr.Code == shared.ErrInvalidCredential.Code {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case shared.ErrorKindConflict:
		return http.StatusConflict
	case shared.ErrorKindOutcomeUnknown:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the error envelope. Internal failures never leak their cause.
func ErrorBody(c *gin.Context, err error) gin.H {
	code, message := shared.ErrInternal.Code, shared.ErrInternal.Message
	var walletErr *shared.Error
	if errors.As(err, &walletErr) && walletErr.Kind != shared.ErrorKindInternal {
		code, message = walletErr.Code, walletErr.Message
	}

	body := gin.H{"error": gin.H{"code": code, "message": message}}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		body["correlation_id"] = correlationID
	}
	return body
}

// AbortWithError stops the chain with the error envelope for err
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(HTTPStatus(err), ErrorBody(c, err))
}
