package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Errors
var (
	ErrUnauthorized = errors.New("host credential required")
	ErrEmptySecret  = errors.New("host secret must not be empty")
)

// maxSecretLen is the longest input bcrypt compares in full
const maxSecretLen = 72

// Gate guards host-only operations behind a single shared secret.
// It is built once at startup and never changes afterwards.
type Gate struct {
	hash []byte
}

// NewGate hashes the host secret
func NewGate(secret string) (*Gate, error) {
	return newGate(secret, bcrypt.DefaultCost)
}

func newGate(secret string, cost int) (*Gate, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) > maxSecretLen {
		return nil, fmt.Errorf("host secret is %d bytes, limit is %d", len(secret), maxSecretLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, err
	}
	return &Gate{hash: hash}, nil
}

// AuthenticateHost returns nil when candidate matches the host secret
// exactly, and ErrUnauthorized otherwise
func (g *Gate) AuthenticateHost(candidate string) error {
	if candidate == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(candidate)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// RequireHost runs fn only when credential authenticates as host
func (g *Gate) RequireHost(credential string, fn func() error) error {
	if err := g.AuthenticateHost(credential); err != nil {
		return err
	}
	return fn()
}
