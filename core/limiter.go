package core

import (
	"fmt"
	"sync"
)

// DefaultMaxCycles bounds the number of turn-cycles a single run may take.
const DefaultMaxCycles = 10

// CycleLimiter enforces a maximum number of model round trips per run.
type CycleLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCycleLimiter creates a new limiter with a max number of cycles.
// If max == 0, unlimited cycles are allowed.
func NewCycleLimiter(max int) *CycleLimiter {
	return &CycleLimiter{max: max}
}

// Increment increases the cycle counter and returns an error if the limit is exceeded.
func (cl *CycleLimiter) Increment() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.count++
	if cl.max > 0 && cl.count > cl.max {
		return fmt.Errorf("exceeded max turn cycles: %d", cl.max)
	}

	return nil
}

// Count returns the number of cycles started so far.
func (cl *CycleLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.count
}

// Remaining returns how many cycles are left before hitting the limit.
func (cl *CycleLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max == 0 {
		return -1 // unlimited
	}

	return cl.max - cl.count
}
