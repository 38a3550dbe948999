package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/driver"
	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/export"
	"github.com/roach88/wodwiki/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal   string
	ExportDir string
	Tick      time.Duration
	Auto      bool // press Run as soon as the timer starts
	Save      bool // save once the workout is done
	KeepOpen  bool // keep cycling after done, until interrupted

	// Now overrides the wall clock (for testing). Nil uses time.Now.
	Now func() time.Time
}

// RunSummary is what run reports once the workout stops.
type RunSummary struct {
	Session string              `json:"session,omitempty"`
	State   engine.State        `json:"state"`
	Results []engine.ResultSpan `json:"results"`
	History []string            `json:"history"`
	Export  string              `json:"export,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a workout script as a timer",
		Long: `Run a workout script (or a compiled forest) as a timer.

Controls are read from stdin, one button label per line (run, pause,
resume, complete, end, reset, save). "quit" stops the timer. Every cycle's
input can be journaled to SQLite for replay, and saves are written as
Markdown files.

Examples:
  wodwiki run cindy.wod
  wodwiki run cindy.wod --auto --save --export-dir ./log
  wodwiki run cindy.wod --journal ./wodwiki.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkout(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default from config)")
	cmd.Flags().StringVar(&opts.ExportDir, "export-dir", "", "directory for saved workouts (default from config)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 0, "cycle cadence (default from config)")
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "start the workout immediately")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the workout once it is done")
	cmd.Flags().BoolVar(&opts.KeepOpen, "keep-open", false, "keep the timer running after the workout is done")

	return cmd
}

func runWorkout(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg := opts.config()
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	script, err := LoadScript(path)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, message, nil)
	}
	if len(script.Syntax) > 0 {
		return outputSyntaxErrors(formatter, path, syntaxLoadErrors(script.Syntax))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	exporters := []engine.Exporter{}
	markdown := export.NewMarkdown(firstNonEmpty(opts.ExportDir, cfg.ExportDir), export.WithNow(now))
	exporters = append(exporters, markdown)

	var (
		recorder driver.Recorder
		session  store.Session
	)
	if journal := firstNonEmpty(opts.Journal, cfg.Journal); journal != "" {
		st, err := store.Open(journal, store.WithNow(now))
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("opening journal: %v", err), nil)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()

		session, err = st.CreateSession(ctx, script.Source)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("creating session: %v", err), nil)
		}
		recorder = st.Recorder(session.ID)
		exporters = append(exporters, st)
		slog.Info("journal session created", "session", session.ID, "journal", journal)
	}

	rtOpts := []engine.RuntimeOption{
		engine.WithNow(now),
		engine.WithExporter(export.Tee(exporters...)),
	}
	if !formatter.JSON() {
		rtOpts = append(rtOpts, engine.WithListener(NewRenderer(formatter.Writer, now)))
	}
	rt, err := engine.New(script.Source, script.Nodes, rtOpts...)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidForest, err.Error(), nil)
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = cfg.Tick
	}
	drvOpts := []driver.Option{driver.WithInterval(tick), driver.WithNow(now)}
	if recorder != nil {
		drvOpts = append(drvOpts, driver.WithRecorder(recorder))
	}
	if !opts.KeepOpen {
		drvOpts = append(drvOpts, driver.StopWhenDone())
	}
	d, err := driver.New(rt, drvOpts...)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRuntime, err.Error(), nil)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping timer", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go readControls(ctx, cmd.InOrStdin(), d, cancel)

	if opts.Auto {
		d.Click(engine.RunButton)
	}
	if session.ID != "" && !formatter.JSON() {
		fmt.Fprintf(formatter.Writer, "Session %s\n", session.ID)
	}

	slog.Info("timer starting", "script", path, "tick", tick)
	runErr := d.Run(ctx)
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		slog.Info("timer stopped")
	case driver.IsFatal(runErr):
		return formatter.fail(ExitFailure, ErrCodeRuntime, runErr.Error(), map[string]any{"state": d.State()})
	default:
		return formatter.fail(ExitCommandError, ErrCodeGeneric, runErr.Error(), nil)
	}

	if opts.Save && d.State() == engine.StateDone {
		// Run has closed the inbox; ctx may already be cancelled by quit.
		if err := d.CycleWith(context.WithoutCancel(ctx), engine.SaveButton.Click(now())...); err != nil {
			return formatter.fail(ExitFailure, ErrCodeRuntime, err.Error(), nil)
		}
	}

	summary := RunSummary{
		Session: session.ID,
		State:   d.State(),
		Results: rt.Results(),
		History: rt.History(),
		Export:  markdown.LastPath(),
	}
	if summary.Results == nil {
		summary.Results = []engine.ResultSpan{}
	}
	if summary.History == nil {
		summary.History = []string{}
	}
	return outputRunSummary(formatter, summary, now())
}

// readControls turns stdin lines into button clicks until ctx ends or the
// input closes.
func readControls(ctx context.Context, in io.Reader, d *driver.Driver, quit context.CancelFunc) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "quit") || strings.EqualFold(line, "q") {
				quit()
				return
			}
			b, found := lookupButton(line)
			if !found {
				slog.Warn("unknown control", "input", line)
				continue
			}
			slog.Debug("control pressed", "button", b.Label)
			d.Click(b)
		}
	}
}

// lookupButton finds a control by label, ignoring case.
func lookupButton(label string) (engine.Button, bool) {
	for _, b := range engine.AllButtons {
		if strings.EqualFold(b.Label, label) {
			return b, true
		}
	}
	return engine.Button{}, false
}

func outputRunSummary(formatter *OutputFormatter, s RunSummary, now time.Time) error {
	if formatter.JSON() {
		return formatter.Success(s)
	}

	w := formatter.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Workout %s: %d result(s)\n", s.State, len(s.Results))
	for _, span := range s.Results {
		fmt.Fprintf(w, "  %-20s %s\n", span.Label, formatSpan(span, now))
	}
	if s.Export != "" {
		fmt.Fprintf(w, "Saved to %s\n", s.Export)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
