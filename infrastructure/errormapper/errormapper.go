// Package errormapper classifies an arbitrary Go error into the wire
// TaskRunError union, following the same priority order the originating
// SDK used: cancellation, then import failure, then process exit, then
// input/output encoding, then deadline, then a recognised built-in
// error, and finally a generic execution failure.
package errormapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/felixgeelhaar/taskworker/domain/wire"
)

// ErrImportFailed wraps a failure to load a task file during indexing or
// dynamic linkage.
type ErrImportFailed struct {
	FilePath string
	Cause    error
}

func (e *ErrImportFailed) Error() string {
	return fmt.Sprintf("could not import task file %q: %v", e.FilePath, e.Cause)
}
func (e *ErrImportFailed) Unwrap() error { return e.Cause }

// ErrTaskInput wraps a failure to decode an incoming run payload.
type ErrTaskInput struct{ Cause error }

func (e *ErrTaskInput) Error() string { return fmt.Sprintf("invalid task input: %v", e.Cause) }
func (e *ErrTaskInput) Unwrap() error { return e.Cause }

// ErrCancelled is returned by task bodies (or constructed internally) to
// signal the run was cancelled rather than failed.
var ErrCancelled = errors.New("task run cancelled")

// Map classifies err into the wire TaskRunError union. stackTrace is the
// caller-captured trace (from runtime/debug.Stack or equivalent); it is
// attached to every classification except STRING_ERROR, which carries
// only the error's text.
func Map(err error, stackTrace string) wire.TaskRunError {
	if err == nil {
		return wire.NewInternalError(wire.ErrTaskExecutionFailed, "", stackTrace)
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, ErrCancelled):
		return wire.NewInternalError(wire.ErrTaskRunCancelled, err.Error(), stackTrace)
	}

	var importErr *ErrImportFailed
	if errors.As(err, &importErr) {
		return wire.NewInternalError(wire.ErrCouldNotImportTask, err.Error(), stackTrace)
	}

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) && exitErr.ExitCode() != 0 {
		return wire.NewInternalError(wire.ErrTaskProcessExitedNonZero, err.Error(), stackTrace)
	}

	var inputErr *ErrTaskInput
	if errors.As(err, &inputErr) {
		return wire.NewInternalError(wire.ErrTaskInputError, err.Error(), stackTrace)
	}

	var marshalErr *json.MarshalerError
	var unsupportedErr *json.UnsupportedTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &marshalErr) || errors.As(err, &unsupportedErr) || errors.As(err, &syntaxErr) {
		return wire.NewInternalError(wire.ErrTaskOutputError, err.Error(), stackTrace)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return wire.NewInternalError(wire.ErrMaxDurationExceeded, err.Error(), stackTrace)
	}

	if name, ok := recognisedBuiltIn(err); ok {
		return wire.NewBuiltInError(name, err.Error(), stackTrace)
	}

	if stackTrace != "" {
		return wire.NewInternalError(wire.ErrTaskExecutionFailed, err.Error(), stackTrace)
	}
	return wire.NewStringError(err.Error())
}

// recognisedBuiltIn reports whether err is one of the standard library's
// well-known error types/values — the closest Go analogue to the fixed
// exception hierarchy the originating SDK classifies against.
func recognisedBuiltIn(err error) (string, bool) {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "ErrNotExist", true
	case errors.Is(err, os.ErrPermission):
		return "ErrPermission", true
	case errors.Is(err, os.ErrClosed):
		return "ErrClosed", true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return "NumError", true
	}
	var runtimeErr runtimeErrorInterface
	if errors.As(err, &runtimeErr) {
		return reflect.TypeOf(err).String(), true
	}
	return "", false
}

type runtimeErrorInterface interface {
	error
	RuntimeError()
}
