package engine

import (
	"github.com/roach88/wodwiki/internal/ir"
)

// Trace tracks visit counters per node and the history of committed paths.
//
// INVARIANTS:
//   - Get(id) <= GetTotal(id) for every id
//   - GetTotal(id) never decreases
//   - a node's current count is reset to 0 when it leaves the active path
//
// Counters live in slices indexed by the Stack's node slots.
type Trace struct {
	stack   *Stack
	current []int
	total   []int
	history []StatementKey
}

func NewTrace(stack *Stack) *Trace {
	return &Trace{
		stack:   stack,
		current: make([]int, stack.Len()),
		total:   make([]int, stack.Len()),
	}
}

// Get returns the node's visit count in its current cycle (0 if unseen).
func (t *Trace) Get(id int) int {
	if slot, ok := t.stack.slot(id); ok {
		return t.current[slot]
	}
	return 0
}

// GetTotal returns the node's lifetime visit count.
func (t *Trace) GetTotal(id int) int {
	if slot, ok := t.stack.slot(id); ok {
		return t.total[slot]
	}
	return 0
}

// Set commits a path: every node on it is counted once, the post-increment
// counts are snapshotted into a StatementKey appended to the history, and
// nodes that were on the previous path but not this one restart their
// current cycle at 0.
func (t *Trace) Set(path []*ir.StatementNode) StatementKey {
	key := StatementKey{Commit: len(t.history) + 1}
	for _, n := range path {
		slot, ok := t.stack.slot(n.ID)
		if !ok {
			continue
		}
		t.current[slot]++
		t.total[slot]++
		key.Entries = append(key.Entries, KeyEntry{ID: n.ID, Index: t.current[slot]})
	}

	if len(t.history) > 0 {
		previous := t.history[len(t.history)-1]
		for _, id := range previous.Not(key) {
			if slot, ok := t.stack.slot(id); ok {
				t.current[slot] = 0
			}
		}
	}

	t.history = append(t.history, key)
	return key
}

// Keys returns the committed keys in order.
func (t *Trace) Keys() []StatementKey {
	return append([]StatementKey(nil), t.history...)
}

// History returns the committed key strings in order.
func (t *Trace) History() []string {
	out := make([]string, len(t.history))
	for i, k := range t.history {
		out[i] = k.String()
	}
	return out
}

// Len returns the number of committed paths.
func (t *Trace) Len() int {
	return len(t.history)
}
