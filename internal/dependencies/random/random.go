package random

import (
	"crypto/rand"
	"math/big"
)

// Random provides dice rolls that can be mocked for testing
type Random interface {
	// Roll returns a value in [1, sides]
	Roll(sides int) int
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Roll returns a cryptographically random face of a die with the given
// number of sides. Fewer than one side always rolls 1.
func (r *CryptoRandom) Roll(sides int) int {
	if sides <= 1 {
		return 1
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(sides)))
	if err != nil {
		// crypto/rand should never fail on supported platforms
		panic(err)
	}
	return int(n.Int64()) + 1
}
