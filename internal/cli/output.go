package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes returned by cmd/tinyprof.
const (
	ExitSuccess      = 0 // every check held
	ExitFailure      = 1 // an assertion, golden file or gap-table check failed
	ExitCommandError = 2 // the command could not run (missing file, bad flag, unreadable input)
)

// ExitError is a command error that selects the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Envelope is the document every command writes under --format json.
type Envelope struct {
	Status  string         `json:"status"`            // "ok" or "error"
	Session string         `json:"session,omitempty"` // profiling session the data belongs to
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError says why a command failed.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Output writes command results in the format picked with --format.
type Output struct {
	Format string
	W      io.Writer
}

func newOutput(opts *RootOptions, cmd *cobra.Command) *Output {
	return &Output{Format: opts.Format, W: cmd.OutOrStdout()}
}

// JSON reports whether results are written as an Envelope.
func (o *Output) JSON() bool {
	return o.Format == "json"
}

// OK writes data as the successful result of session. session may be empty.
// Text output prints data with its default format.
func (o *Output) OK(session string, data any) error {
	if o.JSON() {
		return o.encode(Envelope{Status: "ok", Session: session, Data: data})
	}
	_, err := fmt.Fprintln(o.W, data)
	return err
}

// Fail writes a failed result. JSON output keeps data next to the error;
// text output prints only the code and message.
func (o *Output) Fail(code, message string, data any) error {
	if o.JSON() {
		return o.encode(Envelope{
			Status: "error",
			Data:   data,
			Error:  &EnvelopeError{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(o.W, "Error [%s]: %s\n", code, message)
	return err
}

func (o *Output) encode(v any) error {
	enc := json.NewEncoder(o.W)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
