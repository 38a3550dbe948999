package ir

// SourceMeta locates a statement or fragment in the script text.
// Lines and columns are 1-based; offsets are 0-based byte offsets with an
// exclusive end.
type SourceMeta struct {
	Line        int `json:"line"`
	ColumnStart int `json:"column_start"`
	ColumnEnd   int `json:"column_end"`
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// Length returns the column span of the location.
func (m SourceMeta) Length() int {
	return m.ColumnEnd - m.ColumnStart
}

// CombineMeta returns the smallest location covering every input.
// Returns the zero value when metas is empty.
func CombineMeta(metas ...SourceMeta) SourceMeta {
	if len(metas) == 0 {
		return SourceMeta{}
	}
	first, last := metas[0], metas[0]
	for _, m := range metas[1:] {
		if m.StartOffset < first.StartOffset {
			first = m
		}
		if m.EndOffset > last.EndOffset {
			last = m
		}
	}
	return SourceMeta{
		Line:        first.Line,
		ColumnStart: first.ColumnStart,
		ColumnEnd:   last.ColumnEnd,
		StartOffset: first.StartOffset,
		EndOffset:   last.EndOffset,
	}
}

// StatementNode is one compiled line of a workout script.
//
// INVARIANTS:
//   - ID is the byte offset of the statement's first token
//   - every id in Children, Parent and Next names a node of the same forest
//   - a node is a leaf iff IsLeaf is set or it has no children
type StatementNode struct {
	ID        int        `json:"id"`
	Parent    *int       `json:"parent,omitempty"`
	Next      *int       `json:"next,omitempty"`
	Rounds    int        `json:"rounds"`
	Children  []int      `json:"children"`
	Fragments []Fragment `json:"fragments"`
	Meta      SourceMeta `json:"meta"`
	IsLeaf    bool       `json:"is_leaf"`
}

// Leaf reports whether the runtime should execute the node as a single block
// instead of descending into its children.
func (n *StatementNode) Leaf() bool {
	return n.IsLeaf || len(n.Children) == 0
}

// HasParent reports whether the node was nested under another statement.
func (n *StatementNode) HasParent() bool {
	return n.Parent != nil
}

// ExpectedRounds is the number of leaf visits after which the node is exhausted:
// rounds times the number of children (at least one).
func (n *StatementNode) ExpectedRounds() int {
	rounds := n.Rounds
	if rounds < 1 {
		rounds = 1
	}
	return rounds * max(1, len(n.Children))
}

// FragmentsOf returns the node's fragments of the given kind in order.
func (n *StatementNode) FragmentsOf(kind FragmentKind) []Fragment {
	return FilterFragments(n.Fragments, kind)
}

// First returns the node's first fragment of the given kind.
func (n *StatementNode) First(kind FragmentKind) (Fragment, bool) {
	for _, f := range n.Fragments {
		if f.Kind == kind {
			return f, true
		}
	}
	return Fragment{}, false
}

// Lap returns the node's lap kind, or LapNone.
func (n *StatementNode) Lap() LapKind {
	if f, ok := n.First(FragmentLap); ok {
		return f.Lap
	}
	return LapNone
}

// IntPtr returns a pointer to a copy of v, for optional id fields.
func IntPtr(v int) *int {
	return &v
}
