package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time a DeterministicClock reports by default.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// DeterministicClock is a wall clock for tests: every call to Now advances
// it by one step, so journal entries get distinct, reproducible times.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewDeterministicClock returns a clock starting at Epoch and advancing one
// second per call.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{base: Epoch, step: time.Second}
}

// Now returns the next time. The first call returns the base time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Calls returns how many times Now has been called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns the base time again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
