package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/wodwiki/internal/ir"
)

// Runtime executes a compiled workout forest, one cycle per Tick.
//
// The Runtime has no timer of its own. A driver calls Tick at a fixed
// cadence with the events gathered since the previous cycle (its follow-ups,
// user input and a tick). Tick is not reentrant; the driver must not start a
// cycle while another is running.
//
// The Runtime exclusively owns the current block, the trace, the results
// and the edits. The forest is shared read-only with the Stack.
type Runtime struct {
	source   string
	stack    *Stack
	jit      *Jit
	trace    *Trace
	clock    *Clock
	now      func() time.Time
	exporter Exporter

	current *Block
	results []ResultSpan
	edits   []MetricEdit
	buttons []Button
	display Display

	listeners []Listener
	published published
}

// published is what listeners last saw.
type published struct {
	primed  bool
	display Display
	buttons []Button
	results int
	edits   int
	cursor  *Block
	state   State
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithListener registers a listener for published state.
func WithListener(l Listener) RuntimeOption {
	return func(r *Runtime) {
		r.listeners = append(r.listeners, l)
	}
}

// WithExporter sets the collaborator that receives save requests.
func WithExporter(e Exporter) RuntimeOption {
	return func(r *Runtime) {
		r.exporter = e
	}
}

// WithNow replaces the wall clock used to stamp edits.
func WithNow(now func() time.Time) RuntimeOption {
	return func(r *Runtime) {
		r.now = now
	}
}

// WithCycleClock numbers cycles from an existing clock.
func WithCycleClock(c *Clock) RuntimeOption {
	return func(r *Runtime) {
		r.clock = c
	}
}

// New creates an idle Runtime for a compiled forest. A forest the Stack
// rejects returns ErrCodeInvalidForest and no Runtime.
func New(source string, nodes []ir.StatementNode, opts ...RuntimeOption) (*Runtime, error) {
	stack, err := NewStack(nodes)
	if err != nil {
		return nil, fmt.Errorf("index forest: %w", err)
	}

	r := &Runtime{
		source: source,
		stack:  stack,
		jit:    NewJit(stack),
		clock:  NewClock(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	r.display = idleDisplay()
	return r, nil
}

// Tick runs one cycle: every event is routed to the current block and the
// resulting actions are applied in order. Listeners are then notified of
// whatever changed. The follow-up events are returned for the next cycle.
//
// A failing action stops the cycle. Work already applied is kept and
// published, and the error is returned.
func (r *Runtime) Tick(ctx context.Context, events []Event) ([]Event, error) {
	cycle := r.clock.Next()

	var next []Event
	for _, ev := range events {
		for _, action := range r.current.OnEvent(ctx, ev, r) {
			out, err := action.apply(r)
			if err != nil {
				slog.Error("cycle aborted",
					"cycle", cycle,
					"event", ev.Name,
					"node_id", r.current.ID,
					"error", err,
				)
				r.publish()
				return next, fmt.Errorf("cycle %d: %s: %w", cycle, ev.Name, err)
			}
			next = append(next, out...)
		}
	}

	r.publish()
	return next, nil
}

// GotoBlock navigates to node and makes the resulting block current. The
// outgoing block's spans are appended to the results first.
//
// A nil node returns to idle. A leaf is entered directly. A composite node
// that has used up its rounds hands over to its parent, else its next
// sibling, until a node with rounds left is found; the Runtime is Done when
// none is. From there the child at index (visits mod children) is chosen
// until a leaf is reached.
func (r *Runtime) GotoBlock(node *ir.StatementNode) error {
	if node == nil {
		r.enter(newIdleBlock())
		return nil
	}

	target, err := r.resolve(node)
	if err != nil {
		return err
	}
	if target == nil {
		r.finish()
		return nil
	}

	path, err := r.stack.Goto(target.ID)
	if err != nil {
		return err
	}
	block, err := r.jit.Compile(r.trace, path)
	if err != nil {
		return err
	}
	slog.Debug("entered block", "node_id", block.ID, "block_key", block.Key.String(), "label", block.Label)
	r.enter(block)
	return nil
}

// resolve climbs out of exhausted composites and descends round-robin to
// the leaf to run. It returns nil once the forest is exhausted.
func (r *Runtime) resolve(node *ir.StatementNode) (*ir.StatementNode, error) {
	if node.Leaf() {
		return node, nil
	}

	current := node
	climbed := make(map[int]bool)
	// Each composite is measured against its own expected rounds.
	for r.trace.Get(current.ID) >= current.ExpectedRounds() {
		if climbed[current.ID] {
			return nil, NewInvalidForestError(current.ID, "climb revisits node")
		}
		climbed[current.ID] = true

		up := current.Parent
		if up == nil {
			up = current.Next
		}
		if up == nil {
			return nil, nil
		}
		n, ok := r.stack.GetID(*up)
		if !ok {
			return nil, NewNotFoundError(*up)
		}
		current = n
	}

	for depth := 0; !current.Leaf(); depth++ {
		if depth > r.stack.Len() {
			return nil, NewInvalidForestError(current.ID, "descent does not reach a leaf")
		}
		idx := r.trace.Get(current.ID) % len(current.Children)
		child, ok := r.stack.GetID(current.Children[idx])
		if !ok {
			return nil, NewNotFoundError(current.Children[idx])
		}
		current = child
	}
	return current, nil
}

// enter replaces the current block, collecting the outgoing block's report.
func (r *Runtime) enter(b *Block) {
	if r.current != nil {
		r.results = append(r.results, r.current.Report()...)
	}
	r.current = b
}

// finish collects the current block and becomes Done. Done is terminal
// until a reset.
func (r *Runtime) finish() {
	if r.current != nil && r.current.Kind == BlockDone {
		return
	}
	r.enter(newDoneBlock())
	slog.Info("workout complete", "results", len(r.results), "commits", r.trace.Len())
}

// reset drops all accumulated state and returns to idle.
func (r *Runtime) reset() {
	r.trace = NewTrace(r.stack)
	r.current = newIdleBlock()
	r.results = nil
	r.edits = nil
	r.buttons = nil
}

func (r *Runtime) save(ctx context.Context) error {
	if r.exporter == nil {
		slog.Warn("save requested without an exporter")
		return nil
	}
	return r.exporter.Export(ctx, r.source, r.trace.History())
}

// Reset returns the Runtime to idle outside a cycle and publishes the
// change. A reset event does the same from inside one.
func (r *Runtime) Reset() {
	if _, err := (ResetRuntime{}).apply(r); err != nil {
		return
	}
	r.publish()
}

// Edit appends a metric correction and republishes edits and results.
func (r *Runtime) Edit(edit MetricEdit) {
	if edit.CreatedAt.IsZero() {
		edit.CreatedAt = r.now()
	}
	r.edits = append(r.edits, edit)
	r.notify(func(l Listener) { l.EditsChanged(r.Edits()) })
	r.notify(func(l Listener) { l.ResultsChanged(r.Results()) })
	r.published.edits = len(r.edits)
}

// publish notifies listeners of every field that changed since the last
// publish.
func (r *Runtime) publish() {
	p := &r.published
	first := !p.primed
	p.primed = true

	if first || !r.display.Equal(p.display) {
		p.display = r.display
		r.notify(func(l Listener) { l.DisplayChanged(r.display) })
	}
	if first || !sameButtons(r.buttons, p.buttons) {
		p.buttons = r.Buttons()
		r.notify(func(l Listener) { l.ButtonsChanged(r.Buttons()) })
	}
	if first || len(r.results) != p.results {
		p.results = len(r.results)
		r.notify(func(l Listener) { l.ResultsChanged(r.Results()) })
	}
	if first || len(r.edits) != p.edits {
		p.edits = len(r.edits)
		r.notify(func(l Listener) { l.EditsChanged(r.Edits()) })
	}
	if cursor := r.Cursor(); first || cursor != p.cursor {
		p.cursor = cursor
		r.notify(func(l Listener) { l.CursorChanged(cursor) })
	}
	if state := r.State(); first || state != p.state {
		p.state = state
		r.notify(func(l Listener) { l.StateChanged(state) })
	}
}

func (r *Runtime) notify(fn func(Listener)) {
	for _, l := range r.listeners {
		fn(l)
	}
}

// Source returns the script text the Runtime was built from.
func (r *Runtime) Source() string {
	return r.source
}

// Stack returns the forest index.
func (r *Runtime) Stack() *Stack {
	return r.stack
}

// Trace returns the visit counters and commit history.
func (r *Runtime) Trace() *Trace {
	return r.trace
}

// Current returns the current block.
func (r *Runtime) Current() *Block {
	return r.current
}

// Cursor returns the current Active block, or nil while idle or done.
func (r *Runtime) Cursor() *Block {
	if r.current == nil || r.current.Kind != BlockActive {
		return nil
	}
	return r.current
}

// Cycle returns the number of the last cycle run.
func (r *Runtime) Cycle() int64 {
	return r.clock.Current()
}

// State infers the lifecycle state from the current block.
func (r *Runtime) State() State {
	return stateOf(r.current, len(r.results))
}

// Display returns the last computed display.
func (r *Runtime) Display() Display {
	return r.display
}

// Buttons returns the current block controls.
func (r *Runtime) Buttons() []Button {
	return append([]Button(nil), r.buttons...)
}

// Results returns the collected spans with edits applied.
func (r *Runtime) Results() []ResultSpan {
	return applyEdits(r.results, r.edits)
}

// Edits returns the metric corrections in the order they were made.
func (r *Runtime) Edits() []MetricEdit {
	return append([]MetricEdit(nil), r.edits...)
}

// History returns the committed key strings in order.
func (r *Runtime) History() []string {
	return r.trace.History()
}
