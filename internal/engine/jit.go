package engine

import (
	"strconv"
	"strings"

	"github.com/roach88/wodwiki/internal/ir"
)

// Jit compiles committed paths into Active blocks.
//
// Compile is deterministic: the same trace state and path always yield an
// equivalent block.
type Jit struct {
	stack *Stack
}

func NewJit(stack *Stack) *Jit {
	return &Jit{stack: stack}
}

// Compile commits path to the trace and builds the Active block for its
// terminal node.
func (j *Jit) Compile(trace *Trace, path []*ir.StatementNode) (*Block, error) {
	if len(path) == 0 {
		return nil, &RuntimeError{Code: ErrCodeEmptyPath, Message: "cannot compile an empty path"}
	}
	terminal := path[len(path)-1]
	key := trace.Set(path)

	b := &Block{
		Kind:     BlockActive,
		ID:       terminal.ID,
		Key:      key,
		Path:     path,
		Label:    j.label(terminal),
		Metrics:  j.metrics(path, key),
		Handlers: activeHandlers,
	}

	if d, ok := terminal.First(ir.FragmentDuration); ok && d.Duration != nil {
		b.Target = *d.Duration
		if inc, ok := terminal.First(ir.FragmentIncrement); ok && inc.Direction == ir.DirectionDown {
			b.Countdown = b.Target.Millis() > 0
		}
	}
	return b, nil
}

// label names a node by its efforts, else its actions, else the labels of
// its children.
func (j *Jit) label(n *ir.StatementNode) string {
	if text := nodeText(n); text != "" {
		return text
	}
	var parts []string
	for _, id := range n.Children {
		if child, ok := j.stack.GetID(id); ok {
			if text := nodeText(child); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func nodeText(n *ir.StatementNode) string {
	join := func(kind ir.FragmentKind) string {
		var parts []string
		for _, f := range n.FragmentsOf(kind) {
			parts = append(parts, f.Text)
		}
		return strings.Join(parts, " ")
	}
	if s := join(ir.FragmentEffort); s != "" {
		return s
	}
	return join(ir.FragmentAction)
}

// metrics lists what the block asks for. A flagged composite reports one
// metric per child; anything else reports its own. Repetitions missing on
// the node are inherited from the nearest ancestor with a rep scheme,
// picked by that ancestor's round.
func (j *Jit) metrics(path []*ir.StatementNode, key StatementKey) []Metric {
	terminal := path[len(path)-1]
	inherited := schemeReps(path, key)

	sources := []*ir.StatementNode{terminal}
	if terminal.IsLeaf && len(terminal.Children) > 0 {
		sources = sources[:0]
		for _, id := range terminal.Children {
			if child, ok := j.stack.GetID(id); ok {
				sources = append(sources, child)
			}
		}
	}

	out := make([]Metric, 0, len(sources))
	for _, n := range sources {
		m := Metric{Effort: nodeText(n)}
		if _, scheme := repScheme(n); !scheme {
			if rep, ok := n.First(ir.FragmentRep); ok {
				m.Repetitions = &MetricValue{Value: float64(rep.Count)}
			}
		}
		if m.Repetitions == nil && inherited != nil {
			v := *inherited
			m.Repetitions = &v
		}
		if f, ok := n.First(ir.FragmentResistance); ok {
			m.Resistance = amountValue(f)
		}
		if f, ok := n.First(ir.FragmentDistance); ok {
			m.Distance = amountValue(f)
		}
		if m.Effort == "" && m.Repetitions == nil && m.Resistance == nil && m.Distance == nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// repScheme returns a node's per-round target reps: a rounds group with
// more than one count.
func repScheme(n *ir.StatementNode) ([]ir.Fragment, bool) {
	if _, ok := n.First(ir.FragmentRounds); !ok {
		return nil, false
	}
	reps := n.FragmentsOf(ir.FragmentRep)
	return reps, len(reps) > 1
}

func schemeReps(path []*ir.StatementNode, key StatementKey) *MetricValue {
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		reps, ok := repScheme(n)
		if !ok {
			continue
		}
		visit, _ := key.Index(n.ID)
		round := 0
		if visit > 0 {
			round = (visit - 1) / max(1, len(n.Children))
		}
		if n.IsLeaf {
			round = max(0, visit-1)
		}
		return &MetricValue{Value: float64(reps[round%len(reps)].Count)}
	}
	return nil
}

func amountValue(f ir.Fragment) *MetricValue {
	v, err := strconv.ParseFloat(f.Amount, 64)
	if err != nil {
		v = 1
	}
	return &MetricValue{Value: v, Unit: strings.ToLower(f.Unit)}
}
