package wire

import (
	"encoding/json"
	"fmt"
)

// ErrorCode enumerates the INTERNAL_ERROR reasons the worker can report.
type ErrorCode string

const (
	ErrCouldNotImportTask             ErrorCode = "COULD_NOT_IMPORT_TASK"
	ErrTaskExecutionFailed            ErrorCode = "TASK_EXECUTION_FAILED"
	ErrTaskRunCancelled               ErrorCode = "TASK_RUN_CANCELLED"
	ErrMaxDurationExceeded            ErrorCode = "MAX_DURATION_EXCEEDED"
	ErrTaskProcessExitedNonZero       ErrorCode = "TASK_PROCESS_EXITED_WITH_NON_ZERO_CODE"
	ErrTaskInputError                 ErrorCode = "TASK_INPUT_ERROR"
	ErrTaskOutputError                ErrorCode = "TASK_OUTPUT_ERROR"
	ErrInternalError                  ErrorCode = "INTERNAL_ERROR"
)

// TaskRunError is the tagged union of error shapes a worker can report.
// Exactly one of the three constructors below populates a given value;
// Kind reports which one so callers can type-switch without reflection.
type TaskRunError struct {
	kind errorKind

	// BUILT_IN_ERROR fields.
	Name       string `json:"name,omitempty"`
	Message    string `json:"message,omitempty"`
	StackTrace string `json:"stackTrace,omitempty"`

	// INTERNAL_ERROR fields.
	Code ErrorCode `json:"code,omitempty"`

	// STRING_ERROR fields.
	Raw string `json:"raw,omitempty"`
}

type errorKind string

const (
	kindBuiltIn  errorKind = "BUILT_IN_ERROR"
	kindInternal errorKind = "INTERNAL_ERROR"
	kindString   errorKind = "STRING_ERROR"
)

// NewBuiltInError reports an error recognised as one of the host
// language's standard error/exception types.
func NewBuiltInError(name, message, stackTrace string) TaskRunError {
	return TaskRunError{kind: kindBuiltIn, Name: name, Message: message, StackTrace: stackTrace}
}

// NewInternalError reports an error classified under a taskworker-defined
// ErrorCode.
func NewInternalError(code ErrorCode, message, stackTrace string) TaskRunError {
	return TaskRunError{kind: kindInternal, Code: code, Message: message, StackTrace: stackTrace}
}

// NewStringError reports an error that could not be classified any other
// way, carrying only its rendered string form.
func NewStringError(raw string) TaskRunError {
	return TaskRunError{kind: kindString, Raw: raw}
}

// Kind reports which union variant this error is.
func (e TaskRunError) Kind() string { return string(e.kind) }

func (e TaskRunError) IsBuiltIn() bool  { return e.kind == kindBuiltIn }
func (e TaskRunError) IsInternal() bool { return e.kind == kindInternal }
func (e TaskRunError) IsString() bool   { return e.kind == kindString }

// Error implements the error interface so a TaskRunError can be wrapped
// and passed around like any other Go error.
func (e TaskRunError) Error() string {
	switch e.kind {
	case kindBuiltIn:
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	case kindInternal:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return e.Raw
	}
}

type taskRunErrorWire struct {
	Type       string    `json:"type"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message,omitempty"`
	StackTrace string    `json:"stackTrace,omitempty"`
	Code       ErrorCode `json:"code,omitempty"`
	Raw        string    `json:"raw,omitempty"`
}

// MarshalJSON encodes the active variant with its "type" discriminator.
func (e TaskRunError) MarshalJSON() ([]byte, error) {
	w := taskRunErrorWire{
		Type:       string(e.kind),
		Name:       e.Name,
		Message:    e.Message,
		StackTrace: e.StackTrace,
		Code:       e.Code,
		Raw:        e.Raw,
	}
	if w.Type == "" {
		w.Type = string(kindString)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes whichever variant the "type" discriminator names.
// An unrecognised type is a decode error, never a silent zero value.
func (e *TaskRunError) UnmarshalJSON(data []byte) error {
	var w taskRunErrorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch errorKind(w.Type) {
	case kindBuiltIn:
		*e = NewBuiltInError(w.Name, w.Message, w.StackTrace)
	case kindInternal:
		*e = NewInternalError(w.Code, w.Message, w.StackTrace)
	case kindString:
		*e = NewStringError(w.Raw)
	default:
		return fmt.Errorf("wire: unknown TaskRunError type %q", w.Type)
	}
	return nil
}
