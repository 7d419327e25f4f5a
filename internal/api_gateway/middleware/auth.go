package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CallerIDKey holds the authenticated account id in the gin context
const CallerIDKey = "caller_account_id"

// CredentialVerifier turns a bearer credential into the caller's account id
type CredentialVerifier interface {
	Verify(credential string) (uuid.UUID, error)
}

// Auth rejects requests without a valid bearer token and records the caller.
// The verifier decides between UNAUTHORIZED and INVALID_CREDENTIAL.
func Auth(verifier CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := verifier.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(CallerIDKey, accountID)
		c.Next()
	}
}

// bearerToken returns the credential, or the raw header when the scheme is
// missing so the verifier reports it as malformed rather than absent
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return header
}

// CallerID returns the authenticated account id
func CallerID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(CallerIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
