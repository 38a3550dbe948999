package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates "<prefix>-0001", "<prefix>-0002", ...
//
// Session ids from the journal are UUIDv7 in production. Tests swap in this
// generator so golden output and assertions do not depend on time or
// randomness.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix uses "session".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next id.
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
