package mocks

import (
	"sync"

	"github.com/mcoot/tablesync/internal/dependencies/random"
)

// MockRandom returns queued dice rolls
type MockRandom struct {
	mu sync.Mutex

	// Rolls is a queue of results to return from Roll
	Rolls     []int
	rollIndex int

	// Sides records the die size of every Roll call
	Sides []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Roll returns the next queued result, or 1 if none remain
func (r *MockRandom) Roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sides = append(r.Sides, sides)
	if r.rollIndex >= len(r.Rolls) {
		return 1
	}
	result := r.Rolls[r.rollIndex]
	r.rollIndex++
	return result
}

// QueueRolls adds values to the roll queue
func (r *MockRandom) QueueRolls(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rolls = append(r.Rolls, values...)
}
