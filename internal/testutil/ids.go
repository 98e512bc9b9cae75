package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates request IDs "<prefix>-000001", "<prefix>-000002", ...
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario run twice produces byte-identical output.
//
// Thread-safety: Next is safe for concurrent use. Concurrent callers get
// distinct IDs but in no particular order.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialIDs creates a generator. If prefix is empty, "req" is used.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next ID.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%06d", g.prefix, g.seq)
}

// Reset restarts the sequence. After Reset, Next returns the first ID again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
