package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileStats summarizes a compiled forest.
type CompileStats struct {
	Nodes  int
	Roots  int
	Leaves int
	Timed  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <script>",
		Short: "Compile a workout script to a statement forest",
		Long: `Compile a workout script to its statement forest.

The forest is written as canonical JSON together with the source and its
hash, so it can be passed to run in place of the script.

Exit codes:
  0 - Script compiled
  2 - Script missing or has syntax errors

Examples:
  wodwiki compile cindy.wod
  wodwiki compile cindy.wod -o cindy.json
  wodwiki compile cindy.wod --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	script, err := LoadScript(path)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, message, nil)
	}
	if len(script.Syntax) > 0 {
		return outputSyntaxErrors(formatter, path, syntaxLoadErrors(script.Syntax))
	}

	forest := NewForest(script)
	stats := forestStats(forest.Nodes)
	formatter.VerboseLog("Compiled %s: %d node(s)", path, stats.Nodes)

	if opts.Output != "" {
		if err := writeForest(forest, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(forest)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d statement(s)\n", stats.Nodes)
	fmt.Fprintf(w, "  roots: %d, leaves: %d, timed: %d\n", stats.Roots, stats.Leaves, stats.Timed)
	fmt.Fprintf(w, "  script hash: %s\n", forest.ScriptHash)
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote forest to %s\n", opts.Output)
	}
	return nil
}

// outputSyntaxErrors reports every failed line. Syntax errors are
// command-level errors (exit code 2).
func outputSyntaxErrors(formatter *OutputFormatter, path string, errs []*LoadError) error {
	if formatter.JSON() {
		all := make([]CLIError, len(errs))
		for i, e := range errs {
			all[i] = CLIError{Code: e.Code, Message: e.Message, Details: map[string]int{"line": e.Line}}
		}
		if err := formatter.Encode(CLIResponse{Status: "error", Error: &all[0], Data: all}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "%s:%d\n", path, e.Line)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

func forestStats(nodes []ir.StatementNode) CompileStats {
	stats := CompileStats{Nodes: len(nodes)}
	for i := range nodes {
		n := &nodes[i]
		if !n.HasParent() {
			stats.Roots++
		}
		if n.Leaf() {
			stats.Leaves++
		}
		if _, ok := n.First(ir.FragmentDuration); ok {
			stats.Timed++
		}
	}
	return stats
}

// writeForest writes the forest as canonical JSON.
func writeForest(forest Forest, filename string) error {
	data, err := ir.MarshalCanonical(forest)
	if err != nil {
		return fmt.Errorf("marshaling forest: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
