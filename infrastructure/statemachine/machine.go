// Package statemachine provides the statekit integration for a single run
// worker's lifecycle: IDLE -> LOADING -> RUNNING -> (CANCELLING) ->
// TERMINAL_SUCCESS|TERMINAL_FAILURE -> EXIT.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// Lifecycle state IDs.
const (
	StateIdle            statekit.StateID = "IDLE"
	StateLoading         statekit.StateID = "LOADING"
	StateRunning         statekit.StateID = "RUNNING"
	StateCancelling      statekit.StateID = "CANCELLING"
	StateTerminalSuccess statekit.StateID = "TERMINAL_SUCCESS"
	StateTerminalFailure statekit.StateID = "TERMINAL_FAILURE"
	StateExit            statekit.StateID = "EXIT"
)

// Lifecycle event types.
const (
	EventLoad    statekit.EventType = "LOAD"
	EventRun     statekit.EventType = "RUN"
	EventCancel  statekit.EventType = "CANCEL"
	EventSucceed statekit.EventType = "SUCCEED"
	EventFail    statekit.EventType = "FAIL"
	EventExit    statekit.EventType = "EXIT"
)

// Context carries the state each lifecycle action and guard needs.
// application/runworker owns the actual task execution; this only tracks
// enough to gate and log transitions.
type Context struct {
	RunID      string
	TaskLoaded bool
	FailReason string
}

// NewContext creates a fresh lifecycle context for one run.
func NewContext(runID string) *Context {
	return &Context{RunID: runID}
}

// NewRunWorkerMachine builds the run worker statechart.
func NewRunWorkerMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("run-worker").
		WithInitial(StateIdle).
		WithContext(&Context{}).
		WithAction("logEntry", logStateEntry).
		WithAction("startHeartbeat", actionStartHeartbeat).
		WithAction("stopHeartbeat", actionStopHeartbeat).
		WithAction("flushAndExit", actionFlushAndExit).
		WithGuard("taskLoaded", guardTaskLoaded).
		State(StateIdle).
			OnEntry("logEntry").
			On(EventLoad).Target(StateLoading).
			Done().
		State(StateLoading).
			OnEntry("logEntry").
			On(EventRun).Target(StateRunning).Guard("taskLoaded").Do("startHeartbeat").
			On(EventFail).Target(StateTerminalFailure).
			Done().
		State(StateRunning).
			OnEntry("logEntry").
			On(EventSucceed).Target(StateTerminalSuccess).Do("stopHeartbeat").
			On(EventFail).Target(StateTerminalFailure).Do("stopHeartbeat").
			On(EventCancel).Target(StateCancelling).Do("stopHeartbeat").
			Done().
		State(StateCancelling).
			OnEntry("logEntry").
			On(EventSucceed).Target(StateTerminalSuccess).
			On(EventFail).Target(StateTerminalFailure).
			Done().
		State(StateTerminalSuccess).
			OnEntry("logEntry").
			On(EventExit).Target(StateExit).Do("flushAndExit").
			Done().
		State(StateTerminalFailure).
			OnEntry("logEntry").
			On(EventExit).Target(StateExit).Do("flushAndExit").
			Done().
		State(StateExit).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}
