package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Journal string
}

// SessionSummary is one listed session.
type SessionSummary struct {
	ID         string `json:"id"`
	ScriptHash string `json:"script_hash"`
	Title      string `json:"title"`
	Cycles     int    `json:"cycles"`
	CreatedAt  string `json:"created_at"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled workout sessions",
		Long: `List the workout sessions recorded in a journal, oldest first.

Examples:
  wodwiki sessions --journal ./wodwiki.db
  wodwiki sessions --journal ./wodwiki.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default from config)")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
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

	sessions, err := st.Sessions(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("listing sessions: %v", err), nil)
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = summarizeSession(s)
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found in journal.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %s  %4d cycle(s)  %s\n", s.ID, s.CreatedAt, s.Cycles, s.Title)
	}
	return nil
}

// summarizeSession titles a session with the first line of its script.
func summarizeSession(s store.Session) SessionSummary {
	title, _, _ := strings.Cut(strings.TrimSpace(s.Source), "\n")
	return SessionSummary{
		ID:         s.ID,
		ScriptHash: s.ScriptHash,
		Title:      strings.TrimSpace(title),
		Cycles:     s.Cycles,
		CreatedAt:  s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
