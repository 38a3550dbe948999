package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/compiler"
	"github.com/roach88/wodwiki/internal/driver"
	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal string
	Session string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string       `json:"session"`
	Cycles        int          `json:"cycles"`
	State         engine.State `json:"state"`
	Results       int          `json:"results"`
	History       []string     `json:"history"`
	Deterministic bool         `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Replay journaled workout sessions and verify determinism.

Each session's script is recompiled and re-driven twice from its recorded
cycle batches. Both runs must end with the same state, results and
history.

Exit codes:
  0 - All sessions replay deterministically
  1 - Replays differ
  2 - Command error (journal missing, unknown session, etc.)

Examples:
  wodwiki replay --journal ./wodwiki.db
  wodwiki replay --journal ./wodwiki.db --session 0192...
  wodwiki replay --journal ./wodwiki.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	var sessions []store.Session
	if opts.Session != "" {
		s, err := st.Session(ctx, opts.Session)
		if errors.Is(err, store.ErrSessionNotFound) {
			return formatter.fail(ExitCommandError, ErrCodeNoSession, fmt.Sprintf("session not found: %s", opts.Session), nil)
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
		}
		sessions = []store.Session{s}
	} else {
		sessions, err = st.Sessions(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("listing sessions: %v", err), nil)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	for _, s := range sessions {
		formatter.VerboseLog("Replaying session %s (%d cycles)", s.ID, s.Cycles)
		sr, err := replayAndVerifySession(ctx, st, s)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", s.ID), err)
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// openJournal opens the journal named by the flag or the config.
func openJournal(opts *RootOptions, flag string) (*store.Store, error) {
	path := firstNonEmpty(flag, opts.config().Journal)
	if path == "" {
		return nil, errors.New("journal path required (--journal or config journal)")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("journal not found: %s", path)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return st, nil
}

// replayAndVerifySession replays a session twice into fresh runtimes and
// compares the outcomes.
func replayAndVerifySession(ctx context.Context, st *store.Store, s store.Session) (ReplaySessionResult, error) {
	batches, err := st.Cycles(ctx, s.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	first, err := replaySession(ctx, s.Source, batches)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := replaySession(ctx, s.Source, batches)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	history := first.History()
	if history == nil {
		history = []string{}
	}
	return ReplaySessionResult{
		Session:       s.ID,
		Cycles:        len(batches),
		State:         first.State(),
		Results:       len(first.Results()),
		History:       history,
		Deterministic: sameOutcome(first, second),
	}, nil
}

func replaySession(ctx context.Context, source string, batches []driver.Batch) (*engine.Runtime, error) {
	compiled := compiler.Compile(source)
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("recompile: %w", err)
	}
	rt, err := engine.New(source, compiled.Nodes)
	if err != nil {
		return nil, err
	}
	if err := driver.Replay(ctx, rt, batches); err != nil {
		return nil, err
	}
	return rt, nil
}

func sameOutcome(a, b *engine.Runtime) bool {
	return a.State() == b.State() &&
		reflect.DeepEqual(a.Results(), b.Results()) &&
		reflect.DeepEqual(a.History(), b.History())
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in journal.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, s.Session)
		fmt.Fprintf(w, "  Cycles: %d, state %s, %d result(s)\n", s.Cycles, s.State, s.Results)
		if formatter.Verbose {
			for _, key := range s.History {
				fmt.Fprintf(w, "    %s\n", key)
			}
		}
		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
