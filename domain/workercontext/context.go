// Package workercontext carries the ambient run/attempt/organization
// context a task body and the logger observe while a run is executing.
// Where the originating SDK used a dynamically scoped variable, this is
// carried explicitly as a context.Context value.
package workercontext

import (
	"context"

	"github.com/felixgeelhaar/taskworker/domain/wire"
)

type contextKey struct{}

// TaskContext is the ambient execution context for the run currently
// in flight.
type TaskContext struct {
	Task        wire.TaskInfo
	Run         wire.RunInfo
	Attempt     wire.AttemptInfo
	Batch       *wire.BatchInfo
	Environment wire.EnvironmentInfo
}

// FromExecution builds a TaskContext from an execution payload.
func FromExecution(e wire.TaskRunExecution) *TaskContext {
	return &TaskContext{
		Task:        e.Task,
		Run:         e.Run,
		Attempt:     e.Attempt,
		Batch:       e.Batch,
		Environment: e.Environment,
	}
}

// IsRetry reports whether the current attempt is a retry of a prior one.
func (tc *TaskContext) IsRetry() bool {
	return tc.Attempt.Number > 1
}

// With installs tc into ctx, returning the derived context.
func With(ctx context.Context, tc *TaskContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// From retrieves the TaskContext installed by With, if any.
func From(ctx context.Context) (*TaskContext, bool) {
	tc, ok := ctx.Value(contextKey{}).(*TaskContext)
	return tc, ok
}
