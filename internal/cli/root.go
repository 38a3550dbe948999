// Package cli implements the wodwiki command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs. Commands built on their
	// own (as in tests) fall back to config.Default.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wodwiki CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wodwiki",
		Short: "wodwiki - workout scripts you can run",
		Long: `Compile workout scripts and run them as timers.

A script like "(3) :10 Cindy" compiles to a statement forest; the runtime
walks it one block at a time, timing each effort and collecting results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.Config = cfg

			if !cmd.Flags().Changed("format") {
				opts.Format = cfg.Format
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			level := cfg.Level()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			setupLogging(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (.cue, .yaml)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// config returns the loaded config, or the defaults.
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

func setupLogging(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
