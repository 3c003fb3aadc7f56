package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable session ids: "<prefix>-0001",
// "<prefix>-0002" and so on.
//
// Journals written with the same SequentialIDs and DeterministicClock are
// byte-identical across runs, which keeps golden snapshots stable.
//
// Thread-safety: safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "session".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedID always returns the same id.
type FixedID string

// Generate returns the id.
func (f FixedID) Generate() string { return string(f) }
