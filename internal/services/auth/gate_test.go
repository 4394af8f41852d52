package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type GateSuite struct {
	suite.Suite
	gate *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	gate, err := newGate("dragon-hoard", bcrypt.MinCost)
	s.Require().NoError(err)
	s.gate = gate
}

// NewGate tests

func (s *GateSuite) TestNewGateRejectsEmptySecret() {
	_, err := NewGate("")
	s.ErrorIs(err, ErrEmptySecret)
}

func (s *GateSuite) TestNewGateRejectsOverlongSecret() {
	_, err := NewGate(strings.Repeat("x", 73))
	s.Error(err)
}

func (s *GateSuite) TestNewGateDoesNotKeepPlaintext() {
	s.NotContains(string(s.gate.hash), "dragon-hoard")
}

// AuthenticateHost tests

func (s *GateSuite) TestAuthenticateHostAcceptsExactSecret() {
	s.NoError(s.gate.AuthenticateHost("dragon-hoard"))
}

func (s *GateSuite) TestAuthenticateHostRejectsNearMisses() {
	for _, candidate := range []string{
		"",
		"Dragon-hoard",
		"dragon-hoard ",
		" dragon-hoard",
		"dragon-hoar",
		strings.Repeat("dragon-hoard", 10),
	} {
		s.ErrorIs(s.gate.AuthenticateHost(candidate), ErrUnauthorized, "candidate %q", candidate)
	}
}

// RequireHost tests

func (s *GateSuite) TestRequireHostRunsFnForHost() {
	called := false
	err := s.gate.RequireHost("dragon-hoard", func() error {
		called = true
		return nil
	})
	s.Require().NoError(err)
	s.True(called)
}

func (s *GateSuite) TestRequireHostShortCircuits() {
	called := false
	err := s.gate.RequireHost("wrong", func() error {
		called = true
		return nil
	})
	s.ErrorIs(err, ErrUnauthorized)
	s.False(called)
}

func (s *GateSuite) TestRequireHostPassesThroughFnError() {
	err := s.gate.RequireHost("dragon-hoard", func() error {
		return ErrEmptySecret
	})
	s.ErrorIs(err, ErrEmptySecret)
}
