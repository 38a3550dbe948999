package compiler

import (
	"fmt"

	"github.com/roach88/wodwiki/internal/ir"
	"github.com/roach88/wodwiki/internal/parser"
)

// bodyOrder is the fragment order after lap, rounds and increment.
var bodyOrder = []ir.FragmentKind{
	ir.FragmentDuration,
	ir.FragmentAction,
	ir.FragmentRep,
	ir.FragmentEffort,
	ir.FragmentResistance,
	ir.FragmentDistance,
}

// draft is a statement on its way to becoming a node.
type draft struct {
	fragments []ir.Fragment
	meta      ir.SourceMeta
}

func newDraft(fragments []ir.Fragment) draft {
	metas := make([]ir.SourceMeta, len(fragments))
	for i, f := range fragments {
		metas[i] = f.Meta
	}
	return draft{fragments: fragments, meta: ir.CombineMeta(metas...)}
}

func (d draft) explicitLap() bool {
	for _, f := range d.fragments {
		if f.Kind == ir.FragmentLap && (f.Lap == ir.LapCompose || f.Lap == ir.LapRound) {
			return true
		}
	}
	return false
}

// BuildForest assembles parsed statements into a forest of nodes.
//
// Nesting comes from indentation. An open-ancestor stack holds (column,
// node) pairs; for each statement, entries at the same column are retired
// as siblings, deeper entries are closed, and every remaining entry adopts
// the statement. A statement under several open ancestors is registered as
// a child of each of them and keeps the last one as its parent.
func BuildForest(stmts []parser.Statement) []ir.StatementNode {
	drafts := expandStatements(stmts)

	type open struct {
		column int
		node   *ir.StatementNode
	}

	nodes := make([]*ir.StatementNode, 0, len(drafts))
	explicit := make(map[int]bool, len(drafts))
	var stack []open

	for _, d := range drafts {
		n := &ir.StatementNode{
			ID:        d.meta.StartOffset,
			Rounds:    roundsOf(d.fragments),
			Children:  []int{},
			Fragments: d.fragments,
			Meta:      d.meta,
		}
		column := d.meta.ColumnStart
		explicit[n.ID] = d.explicitLap()

		var ancestors []open
		for _, e := range stack {
			if e.column == column {
				e.node.Next = ir.IntPtr(n.ID)
			}
			if e.column < column {
				ancestors = append(ancestors, e)
			}
		}

		for _, e := range ancestors {
			e.node.Children = append(e.node.Children, n.ID)
			if explicit[n.ID] {
				e.node.IsLeaf = true
			}
			n.Parent = ir.IntPtr(e.node.ID)
		}

		stack = append(ancestors, open{column: column, node: n})
		nodes = append(nodes, n)
	}

	out := make([]ir.StatementNode, len(nodes))
	for i, n := range nodes {
		if n.Parent != nil && n.Lap() == ir.LapNone {
			n.Fragments = append(n.Fragments, ir.Fragment{
				Kind:      ir.FragmentLap,
				Lap:       ir.LapRepeat,
				Synthetic: true,
				Meta: ir.SourceMeta{
					Line:        n.Meta.Line,
					ColumnStart: n.Meta.ColumnStart,
					ColumnEnd:   n.Meta.ColumnStart,
					StartOffset: n.Meta.StartOffset,
					EndOffset:   n.Meta.StartOffset,
				},
			})
		}
		if explicit[n.ID] {
			n.IsLeaf = true
		}
		out[i] = *n
	}
	return out
}

// expandStatements converts statements to drafts. A rounds group followed
// by a body on a line with no indented children becomes two drafts: the
// rounds header and a body one column further in, which the stack pass
// then nests as its only child.
func expandStatements(stmts []parser.Statement) []draft {
	type split struct {
		head, body []ir.Fragment
		column     int
	}
	parts := make([]split, len(stmts))
	for i, s := range stmts {
		head, body := statementFragments(s)
		parts[i] = split{head: head, body: body, column: newDraft(append(append([]ir.Fragment{}, head...), body...)).meta.ColumnStart}
	}

	var drafts []draft
	for i, s := range stmts {
		p := parts[i]
		hasChildren := i+1 < len(parts) && parts[i+1].column > p.column
		if s.Rounds != nil && len(p.body) > 0 && !hasChildren {
			drafts = append(drafts, newDraft(p.head), newDraft(p.body))
			continue
		}
		drafts = append(drafts, newDraft(append(p.head, p.body...)))
	}
	return drafts
}

// statementFragments transforms a statement into its header fragments (lap,
// rounds and per-round reps) and body fragments (increment, then items
// grouped by kind).
func statementFragments(s parser.Statement) (head, body []ir.Fragment) {
	if s.Lap != nil {
		head = append(head, ir.NewLap(s.Lap.Kind, s.Lap.Meta))
	}
	if s.Rounds != nil {
		head = append(head, roundsFragments(s.Rounds)...)
	}

	items := make([]ir.Fragment, 0, len(s.Items))
	var firstTimer *ir.SourceMeta
	for _, item := range s.Items {
		f := itemFragment(item)
		if f.Kind == ir.FragmentDuration && firstTimer == nil {
			meta := f.Meta
			firstTimer = &meta
		}
		items = append(items, f)
	}

	switch {
	case s.Trend != nil:
		body = append(body, ir.NewIncrement(ir.DirectionUp, s.Trend.Meta))
	case firstTimer != nil:
		body = append(body, ir.NewIncrement(ir.DirectionDown, *firstTimer))
	}

	for _, kind := range bodyOrder {
		body = append(body, ir.FilterFragments(items, kind)...)
	}
	return head, body
}

func roundsFragments(g *parser.RoundsGroup) []ir.Fragment {
	if len(g.Counts) == 1 {
		return []ir.Fragment{ir.NewRounds(g.Counts[0], g.Meta)}
	}
	out := []ir.Fragment{ir.NewRounds(len(g.Counts), g.Meta)}
	for _, reps := range g.Counts {
		out = append(out, ir.NewRep(reps, g.Meta))
	}
	return out
}

func itemFragment(item parser.Item) ir.Fragment {
	switch it := item.(type) {
	case parser.Timer:
		// The parser only accepts timers ParseTimer can read.
		d, _ := ir.ParseTimer(it.Image)
		return ir.NewDuration(d, it.Meta)
	case parser.ActionPhrase:
		return ir.NewAction(it.Name, it.Meta)
	case parser.Reps:
		return ir.NewRep(it.Count, it.Meta)
	case parser.Effort:
		return ir.NewEffort(it.Text, it.Meta)
	case parser.Resistance:
		return ir.NewResistance(it.Amount, it.Unit, it.Meta)
	case parser.Distance:
		return ir.NewDistance(it.Amount, it.Unit, it.Meta)
	}
	panic(fmt.Sprintf("compiler: unhandled statement item %T", item))
}

func roundsOf(fragments []ir.Fragment) int {
	for _, f := range fragments {
		if f.Kind == ir.FragmentRounds && f.Count > 0 {
			return f.Count
		}
	}
	return 1
}
