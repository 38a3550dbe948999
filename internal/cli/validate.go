package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wodwiki/internal/compiler"
	"github.com/roach88/wodwiki/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Nodes    int                        `json:"nodes"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script>",
		Short: "Check a script or compiled forest without running it",
		Long: `Check a workout script or a compiled forest (.json).

Scripts are checked for syntax errors. Forests are checked for dangling
ids, invalid rounds and empty nodes. Both are checked for parent/next
loops the runtime could never climb out of; loops are reported as
warnings.

Exit codes:
  0 - Valid (warnings allowed)
  1 - Validation errors found
  2 - File missing or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := ValidateScript(path)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, message, nil)
	}
	formatter.VerboseLog("Checked %d node(s) in %s", result.Nodes, path)

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateScript checks a script or forest file and collects every error.
func ValidateScript(path string) (*ValidationResult, error) {
	data, err := readScriptFile(path)
	if err != nil {
		return nil, err
	}

	var (
		nodes []ir.StatementNode
		errs  []compiler.ValidationError
	)
	if isForestPath(path) {
		doc, err := decodeForest(data)
		if err != nil {
			return nil, err
		}
		nodes = doc.Nodes
	} else {
		compiled := compiler.Compile(string(data))
		nodes = compiled.Nodes
		errs = compiler.SyntaxValidationErrors(compiled.Errors)
	}
	errs = append(errs, compiler.Validate(nodes)...)

	return &ValidationResult{
		Valid:    len(errs) == 0,
		Nodes:    len(nodes),
		Errors:   errs,
		Warnings: compiler.AnalyzeCycles(nodes),
	}, nil
}

func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Script valid")
	printWarnings(formatter, result.Warnings)
	return nil
}

// outputValidationErrors reports every error. Validation failures exit 1.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	printWarnings(formatter, result.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func printWarnings(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}
