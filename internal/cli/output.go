package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modloader/internal/mod"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected request (conflict, version mismatch, unknown id, etc.)
	ExitCommandError = 2 // Usage or configuration error
	ExitFatal        = 3 // Storage or filesystem failure
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFatal if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFatal
}

// exitCodeFor classifies a domain error.
func exitCodeFor(err error) int {
	switch {
	case mod.CodeOf(err) == mod.CodeConfig:
		return ExitCommandError
	case mod.Recoverable(err), interrupted(err):
		return ExitFailure
	default:
		return ExitFatal
	}
}

// interrupted reports a bare context error, as returned when the command is
// cancelled before its work started. Nothing was changed, so it is not fatal.
func interrupted(err error) bool {
	if mod.CodeOf(err) != "" {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// TextRenderer is implemented by results with a custom text rendering.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard structured response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`                     // "ok" or "error"
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`     // success payload
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`   // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`                           // mod error code, e.g. "MOD_CONFLICT"
	Message string `json:"message" yaml:"message"`                     // human-readable message
	Details any    `json:"details,omitempty" yaml:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	switch f.Format {
	case "json":
		return f.encodeJSON(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	if r, ok := data.(TextRenderer); ok {
		return r.RenderText(f.Writer)
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	resp := CLIResponse{
		Status: "error",
		Error: &CLIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	switch f.Format {
	case "json":
		return f.encodeJSON(resp)
	case "yaml":
		return f.encodeYAML(resp)
	}

	// Human-readable error
	fmt.Fprintln(f.Writer, errorStyle.Render(fmt.Sprintf("Error [%s]: %s", code, message)))
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail renders err and returns it wrapped in an ExitError carrying the
// matching exit code. Conflict, version and archive details are included
// in structured formats and always listed in text.
func (f *OutputFormatter) Fail(err error) error {
	code := "INTERNAL"
	message := err.Error()
	var details any

	var me *mod.Error
	if interrupted(err) {
		code = "CANCELED"
	} else if errors.As(err, &me) {
		code = string(me.Code)
		message = me.Message
		if me.Err != nil {
			message += ": " + me.Err.Error()
		}
		details = errorDetails(me)
	}

	if f.Format == "text" {
		if me != nil && len(me.Conflicts) > 0 {
			fmt.Fprintln(f.Writer, errorStyle.Render(fmt.Sprintf("Error [%s]: %s", code, message)))
			for _, c := range me.Conflicts {
				fmt.Fprintf(f.Writer, "  %s  %s\n", c.Path, mutedStyle.Render("owned by "+c.ModName))
			}
		} else if outErr := f.Error(code, message, details); outErr != nil {
			return outErr
		}
	} else if outErr := f.Error(code, message, details); outErr != nil {
		return outErr
	}

	return WrapExitError(exitCodeFor(err), code, err)
}

func errorDetails(e *mod.Error) any {
	switch {
	case len(e.Conflicts) > 0:
		return map[string]any{"conflicts": e.Conflicts}
	case e.Mismatch != nil:
		return e.Mismatch
	case e.Reason != "":
		return map[string]any{"reason": e.Reason}
	default:
		return nil
	}
}

func (f *OutputFormatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *OutputFormatter) encodeYAML(v any) error {
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is structured, verbose logs go to ErrWriter to avoid corrupting output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
