package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/ir"
	"github.com/roach88/wodwiki/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Session string
	Event   string // optional - filter to one event name
	Ticks   bool   // include tick events
}

// TraceEvent is one recorded event in the timeline.
type TraceEvent struct {
	Cycle  int64     `json:"cycle"`
	Name   string    `json:"name"`
	Offset string    `json:"offset"` // since the session's first event
	At     time.Time `json:"at"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session    string       `json:"session"`
	ScriptHash string       `json:"script_hash"`
	Source     string       `json:"source"`
	Timeline   []TraceEvent `json:"timeline"`
	Stats      TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Cycles     int `json:"cycles"`
	Events     int `json:"events"`
	UserEvents int `json:"user_events"`
	Exports    int `json:"exports"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded events of a session",
		Long: `Show the journaled input of one workout session.

The timeline lists every recorded event with its cycle and its offset
from the first event of the session. Tick events are left out unless
--ticks is given.

Examples:
  wodwiki trace --journal ./wodwiki.db --session 0192...
  wodwiki trace --journal ./wodwiki.db --session 0192... --event complete
  wodwiki trace --journal ./wodwiki.db --session 0192... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Event, "event", "", "filter to one event name")
	cmd.Flags().BoolVar(&opts.Ticks, "ticks", false, "include tick events")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openJournal(opts.RootOptions, opts.Journal)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, opts)
	if errors.Is(err, store.ErrSessionNotFound) {
		return formatter.fail(ExitCommandError, ErrCodeNoSession, fmt.Sprintf("session not found: %s", opts.Session), nil)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func buildTrace(ctx context.Context, st *store.Store, opts *TraceOptions) (TraceResult, error) {
	session, err := st.Session(ctx, opts.Session)
	if err != nil {
		return TraceResult{}, err
	}
	batches, err := st.Cycles(ctx, session.ID)
	if err != nil {
		return TraceResult{}, fmt.Errorf("reading cycles: %w", err)
	}
	exports, err := st.Exports(ctx, session.ScriptHash)
	if err != nil {
		return TraceResult{}, fmt.Errorf("reading exports: %w", err)
	}

	result := TraceResult{
		Session:    session.ID,
		ScriptHash: session.ScriptHash,
		Source:     session.Source,
		Timeline:   []TraceEvent{},
		Stats:      TraceStats{Cycles: len(batches), Exports: len(exports)},
	}

	var origin time.Time
	for _, b := range batches {
		for _, ev := range b.Events {
			if origin.IsZero() {
				origin = ev.Timestamp
			}
			result.Stats.Events++
			if ev.Name != engine.EventTick {
				result.Stats.UserEvents++
			}
			if !includeEvent(ev, opts) {
				continue
			}
			result.Timeline = append(result.Timeline, TraceEvent{
				Cycle:  b.Cycle,
				Name:   ev.Name,
				Offset: ir.FromDuration(ev.Timestamp.Sub(origin)).String(),
				At:     ev.Timestamp,
			})
		}
	}
	return result, nil
}

func includeEvent(ev engine.Event, opts *TraceOptions) bool {
	if opts.Event != "" {
		return ev.Name == opts.Event
	}
	return opts.Ticks || ev.Name != engine.EventTick
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Session: %s\n", result.Session)
	fmt.Fprintf(w, "Script:  %s\n", result.ScriptHash)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No events recorded.")
	} else {
		fmt.Fprintln(w, "Timeline:")
		for _, ev := range result.Timeline {
			fmt.Fprintf(w, "  [cycle %4d] %-10s +%s\n", ev.Cycle, ev.Name, ev.Offset)
		}
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintf(w, "Stats: %d cycle(s), %d event(s), %d user event(s), %d export(s)\n",
		s.Cycles, s.Events, s.UserEvents, s.Exports)
	return nil
}
