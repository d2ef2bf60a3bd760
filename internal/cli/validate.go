package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/tinyprof/internal/config"
)

// ValidationError is one gap-table problem in CLI output.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Name   string            `json:"name,omitempty"`
	Gaps   []string          `json:"gaps,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <gap-table>",
		Short: "Validate a CUE or YAML gap table",
		Long: `Validate a gap table without running anything.

.cue files are unified with the gap-table schema, so misspelled fields and
out-of-range values are reported with line numbers. .yaml and .yml files are
decoded strictly. Both are then checked for empty or duplicate gap names and
a reference that names no gap.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts, cmd.ErrOrStderr())
	out := newOutput(opts, cmd)

	logger.Debug("loading gap table", "path", path)
	table, err := config.Load(path)
	if err != nil {
		switch code := config.Code(err); code {
		case config.ErrCodeRead, config.ErrCodeFormat:
			// the file never reached the checks: command error
			_ = out.Fail(code, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		return outputValidationErrors(out, validationErrors(err))
	}

	logger.Debug("gap table loaded", "name", table.Name, "gaps", len(table.Gaps))
	if out.JSON() {
		return out.OK("", ValidationResult{Valid: true, Name: table.Name, Gaps: table.Gaps})
	}
	fmt.Fprintf(out.W, "✓ Gap table valid (%d gaps)\n", len(table.Gaps))
	return nil
}

// validationErrors flattens a joined config error into CLI errors.
func validationErrors(err error) []ValidationError {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		var ce *config.Error
		if errors.As(e, &ce) {
			out = append(out, ValidationError{
				Code:    ce.Code,
				Message: ce.Message,
				Line:    lineOf(ce.Pos),
			})
			continue
		}
		out = append(out, ValidationError{Code: config.ErrCodeGeneric, Message: e.Error()})
	}
	return out
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidationErrors reports a table that loaded but failed its checks.
func outputValidationErrors(out *Output, errs []ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if out.JSON() {
		if err := out.Fail(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(out.W, "✗ Validation failed")
	fmt.Fprintln(out.W)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(out.W, "line %d\n", e.Line)
		}
		fmt.Fprintf(out.W, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failure
}
