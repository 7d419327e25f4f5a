package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PinVerifier checks a PIN against the bcrypt hash stored at registration
type PinVerifier struct {
	cost int
}

func NewPinVerifier() *PinVerifier {
	return &PinVerifier{cost: bcrypt.DefaultCost}
}

// Verify returns false, nil for a wrong PIN and an error only when the hash is unusable
func (p *PinVerifier) Verify(hash, pin string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare pin hash: %w", err)
}

// Hash is what the registration service stores; kept here for seeding and tests
func (p *PinVerifier) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}
