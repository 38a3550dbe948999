package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/ir"
)

// Renderer prints runtime changes as plain text lines. The display line is
// only reprinted when the label or the whole-second clock face changes, so
// a 100ms cadence does not flood the terminal.
type Renderer struct {
	mu   sync.Mutex
	w    io.Writer
	now  func() time.Time
	face string
}

// NewRenderer creates a renderer writing to w. now is used for the
// durations of open spans.
func NewRenderer(w io.Writer, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{w: w, now: now}
}

func (r *Renderer) DisplayChanged(d engine.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()

	face := fmt.Sprintf("%-20s %s", d.Label, d.Primary)
	if total, ok := d.Bag[engine.ClockTotal]; ok {
		face += fmt.Sprintf("  (total %s)", total)
	}
	if face == r.face {
		return
	}
	r.face = face
	fmt.Fprintln(r.w, face)
}

func (r *Renderer) ButtonsChanged(buttons []engine.Button) {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]string, len(buttons))
	for i, b := range buttons {
		labels[i] = "[" + b.Label + "]"
	}
	fmt.Fprintf(r.w, "  controls: %s\n", strings.Join(labels, " "))
}

func (r *Renderer) ResultsChanged(spans []engine.ResultSpan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(spans) == 0 {
		return
	}
	s := spans[len(spans)-1]
	if s.Stop == nil {
		return
	}
	fmt.Fprintf(r.w, "  ✓ %s %s\n", s.Label, formatSpan(s, r.now()))
}

func (r *Renderer) EditsChanged(edits []engine.MetricEdit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(edits) == 0 {
		return
	}
	e := edits[len(edits)-1]
	fmt.Fprintf(r.w, "  edited %s #%d %s = %s\n", e.BlockKey, e.Index, e.Metric, e.Value)
}

// CursorChanged is silent; the display line already carries the label.
func (r *Renderer) CursorChanged(*engine.Block) {}

func (r *Renderer) StateChanged(s engine.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "── %s\n", s)
}

var _ engine.Listener = (*Renderer)(nil)

// formatSpan renders a span's duration and metrics.
func formatSpan(s engine.ResultSpan, now time.Time) string {
	var b strings.Builder
	b.WriteString(ir.FromDuration(s.Duration(now)).String())
	for _, m := range s.Metrics {
		var parts []string
		if m.Repetitions != nil {
			parts = append(parts, m.Repetitions.String()+"x")
		}
		if m.Resistance != nil {
			parts = append(parts, m.Resistance.String())
		}
		if m.Distance != nil {
			parts = append(parts, m.Distance.String())
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, " %s %s", m.Effort, strings.Join(parts, " "))
		}
	}
	return b.String()
}
