package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/taskworker/domain/workercontext"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// TaskID adds a task id field.
func TaskID(id string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("task_id", id) }
}

// RunID adds a run id field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("run_id", id) }
}

// AttemptNumber adds an attempt number field.
func AttemptNumber(n int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int("attempt_number", n) }
}

// State adds a run-worker lifecycle state field.
func State(s string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("state", s) }
}

// FromState adds a from_state field for transitions.
func FromState(s string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("from_state", s) }
}

// ToState adds a to_state field for transitions.
func ToState(s string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("to_state", s) }
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int64("duration_ms", d.Milliseconds()) }
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("component", name) }
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str("operation", op) }
}

// Str adds a string field with a custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str(key, value) }
}

// Int adds an integer field with a custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int(key, value) }
}

// TaskFields returns the {task_id, run_id, attempt_number} field set
// derived from the ambient workercontext.TaskContext, for chaining with
// LogEvent.Add.
func TaskFields(tc *workercontext.TaskContext) []Field {
	if tc == nil {
		return nil
	}
	return []Field{
		TaskID(tc.Task.ID),
		RunID(tc.Run.ID),
		AttemptNumber(tc.Attempt.Number),
	}
}
