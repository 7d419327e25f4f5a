package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenVerifier resolves a bearer credential to the caller's account id.
// Tokens are issued by the external identity service with the account id in "sub".
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify returns shared.ErrUnauthorized for an empty credential and
// shared.ErrInvalidCredential for anything malformed, badly signed or expired
func (v *TokenVerifier) Verify(credential string) (uuid.UUID, error) {
	if credential == "" {
		return uuid.Nil, shared.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return uuid.Nil, shared.ErrInvalidCredential.WithCause(err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, &shared.Error{
			Kind:    shared.ErrInvalidCredential.Kind,
			Code:    shared.ErrInvalidCredential.Code,
			Message: "token subject is not an account id",
			Err:     err,
		}
	}
	return accountID, nil
}

// Sign issues a token for accountID; used by local tooling and tests
func (v *TokenVerifier) Sign(accountID uuid.UUID, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
