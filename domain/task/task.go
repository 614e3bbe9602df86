// Package task defines the task registry and the Task object that wraps
// a user-supplied run function.
package task

import (
	"context"
	"encoding/json"
	"time"
)

// RunFunc is a user-supplied task body. It receives the decoded run
// payload and returns the value to encode as the run's output.
type RunFunc func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// RetryConfig controls how the coordinator retries a failed run. The
// worker never performs a retry itself (see Non-goals); it only carries
// and validates this configuration, and can echo a preview delay for
// diagnostic logging.
type RetryConfig struct {
	MaxAttempts     int     `json:"maxAttempts"`
	MinTimeoutInMs  int     `json:"minTimeoutInMs"`
	MaxTimeoutInMs  int     `json:"maxTimeoutInMs"`
	Factor          float64 `json:"factor"`
	Randomize       bool    `json:"randomize"`
}

// DefaultRetryConfig mirrors the defaults of the originating SDK.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		MinTimeoutInMs: 1000,
		MaxTimeoutInMs: 60000,
		Factor:         2.0,
		Randomize:      true,
	}
}

// Validate enforces the invariants a RetryConfig must satisfy.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return ErrInvalidRetryConfig
	}
	if c.MaxTimeoutInMs < c.MinTimeoutInMs {
		return ErrInvalidRetryConfig
	}
	if c.Factor < 1 {
		return ErrInvalidRetryConfig
	}
	return nil
}

// QueueConfig names the queue a task's runs are dispatched through and
// optionally bounds its concurrency.
type QueueConfig struct {
	Name             string `json:"name"`
	ConcurrencyLimit *int   `json:"concurrencyLimit,omitempty"`
}

// Validate enforces the invariants a QueueConfig must satisfy.
func (c QueueConfig) Validate() error {
	if c.Name == "" {
		return ErrInvalidQueueConfig
	}
	if c.ConcurrencyLimit != nil && *c.ConcurrencyLimit < 1 {
		return ErrInvalidQueueConfig
	}
	return nil
}

// Config is the set of declarative options a task is registered with.
type Config struct {
	ID          string
	Description string
	Queue       *QueueConfig
	Retry       *RetryConfig
	MaxDuration time.Duration
}

// Task is a registered unit of work: an id, its declared configuration,
// and the function that runs it.
type Task struct {
	id          string
	description string
	queue       *QueueConfig
	retry       *RetryConfig
	maxDuration time.Duration
	filePath    string
	exportName  string
	run         RunFunc
}

// New constructs a Task from its configuration and run function. It does
// not register the task; call Register (or Registry.Register) for that.
func New(cfg Config, filePath, exportName string, run RunFunc) (*Task, error) {
	if cfg.ID == "" {
		return nil, ErrEmptyTaskID
	}
	if run == nil {
		return nil, ErrNilRunFunc
	}
	if cfg.Queue != nil {
		if err := cfg.Queue.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Retry != nil {
		if err := cfg.Retry.Validate(); err != nil {
			return nil, err
		}
	}
	return &Task{
		id:          cfg.ID,
		description: cfg.Description,
		queue:       cfg.Queue,
		retry:       cfg.Retry,
		maxDuration: cfg.MaxDuration,
		filePath:    filePath,
		exportName:  exportName,
		run:         run,
	}, nil
}

func (t *Task) ID() string               { return t.id }
func (t *Task) Description() string      { return t.description }
func (t *Task) Queue() *QueueConfig      { return t.queue }
func (t *Task) Retry() *RetryConfig      { return t.retry }
func (t *Task) MaxDuration() time.Duration { return t.maxDuration }
func (t *Task) FilePath() string         { return t.filePath }
func (t *Task) ExportName() string       { return t.exportName }

// Execute runs the task body. The caller (application/runworker) is
// responsible for bounding concurrency and for recovering panics; Execute
// itself just calls through to the user function. Cancelling ctx does not
// interrupt a run function that ignores ctx: it runs to completion.
func (t *Task) Execute(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return t.run(ctx, payload)
}

// Resource is the catalog entry emitted during indexing. It intentionally
// duplicates FilePath into EntryPoint: the coordinator's schema expects
// both keys even though they always carry the same value for this
// runtime.
type Resource struct {
	ID          string       `json:"id"`
	FilePath    string       `json:"filePath"`
	EntryPoint  string       `json:"entryPoint"`
	ExportName  string       `json:"exportName"`
	Description string       `json:"description,omitempty"`
	Queue       *QueueConfig `json:"queue,omitempty"`
	Retry       *RetryConfig `json:"retry,omitempty"`
	MaxDuration int64        `json:"maxDuration,omitempty"`
}

// AsResource converts a registered Task into its indexed catalog entry.
func (t *Task) AsResource() Resource {
	var maxDurationSeconds int64
	if t.maxDuration > 0 {
		maxDurationSeconds = int64(t.maxDuration / time.Second)
	}
	return Resource{
		ID:          t.id,
		FilePath:    t.filePath,
		EntryPoint:  t.filePath,
		ExportName:  t.exportName,
		Description: t.description,
		Queue:       t.queue,
		Retry:       t.retry,
		MaxDuration: maxDurationSeconds,
	}
}
