package engine

import (
	"strconv"
	"strings"
)

// KeyEntry is one node's cycle index at the moment a path was committed.
type KeyEntry struct {
	ID    int `json:"id"`
	Index int `json:"index"`
}

// StatementKey identifies an execution position: the commit number and the
// cycle index of every node on the committed path, root first.
type StatementKey struct {
	Commit  int        `json:"commit"`
	Entries []KeyEntry `json:"entries"`
}

// String renders the composite identity, e.g. "3|0:3|4:3".
func (k StatementKey) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(k.Commit))
	for _, e := range k.Entries {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(e.ID))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Index))
	}
	return b.String()
}

// IsZero reports whether the key was never committed.
func (k StatementKey) IsZero() bool {
	return k.Commit == 0 && len(k.Entries) == 0
}

// IDs returns the node ids on the path in order.
func (k StatementKey) IDs() []int {
	ids := make([]int, len(k.Entries))
	for i, e := range k.Entries {
		ids[i] = e.ID
	}
	return ids
}

// Index returns the cycle index recorded for id.
func (k StatementKey) Index(id int) (int, bool) {
	for _, e := range k.Entries {
		if e.ID == id {
			return e.Index, true
		}
	}
	return 0, false
}

// Terminal returns the last id on the path.
func (k StatementKey) Terminal() (int, bool) {
	if len(k.Entries) == 0 {
		return 0, false
	}
	return k.Entries[len(k.Entries)-1].ID, true
}

// Not returns the ids present in k but absent from other, in k's order.
// Index values are ignored.
func (k StatementKey) Not(other StatementKey) []int {
	present := make(map[int]struct{}, len(other.Entries))
	for _, e := range other.Entries {
		present[e.ID] = struct{}{}
	}
	var out []int
	for _, e := range k.Entries {
		if _, ok := present[e.ID]; !ok {
			out = append(out, e.ID)
		}
	}
	return out
}
