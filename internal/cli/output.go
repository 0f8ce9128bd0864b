package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophledger/internal/common"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation failed or left residue
	ExitCommandError = 2 // bad flags, config or connection
)

// ExitError carries an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// an ExitError give ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope written with --format json.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OutputFormatter writes results as JSON or text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Result writes data and, in JSON mode, err alongside it. text renders
// data in text mode, where errors are left to the caller.
func (f *OutputFormatter) Result(data any, err error, text func(io.Writer)) error {
	if f.Format == "json" {
		resp := Response{Status: "ok", Data: data}
		if err != nil {
			resp.Status = "error"
			resp.Error = err.Error()
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if text != nil {
		text(f.Writer)
	}
	return nil
}

// emit writes res (which may be nil) and turns err into an ExitError.
func emit[T any](f *OutputFormatter, op string, res *T, err error, text func(io.Writer, *T)) error {
	var data any
	var render func(io.Writer)
	if res != nil {
		data = res
		if text != nil {
			render = func(w io.Writer) { text(w, res) }
		}
	}
	if werr := f.Result(data, err, render); werr != nil {
		return werr
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrInvalidArgument):
		return WrapExitError(ExitCommandError, op, err)
	default:
		return WrapExitError(ExitFailure, op, err)
	}
}
