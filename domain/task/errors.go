package task

import "errors"

var (
	// ErrEmptyTaskID is returned when a Task is constructed with no id.
	ErrEmptyTaskID = errors.New("task: id must not be empty")

	// ErrNilRunFunc is returned when a Task is constructed without a run function.
	ErrNilRunFunc = errors.New("task: run function must not be nil")

	// ErrInvalidRetryConfig is returned when a RetryConfig fails validation.
	ErrInvalidRetryConfig = errors.New("task: invalid retry config")

	// ErrInvalidQueueConfig is returned when a QueueConfig fails validation.
	ErrInvalidQueueConfig = errors.New("task: invalid queue config")

	// ErrDuplicateTaskID is returned by Registry.Register when the id is
	// already taken; the first registration wins and is retained.
	ErrDuplicateTaskID = errors.New("task: id already registered")

	// ErrTaskNotFound is returned when looking up an unregistered id.
	ErrTaskNotFound = errors.New("task: not found")
)
