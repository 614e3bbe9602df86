package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Interpreter wraps the statekit interpreter with run-worker lifecycle
// methods named for what they do instead of generic state IDs.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter for the run worker lifecycle.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) { *c = ctx })
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start enters the initial IDLE state.
func (i *Interpreter) Start() {
	i.interp.Start()
}

// Stop halts the interpreter without forcing a terminal transition.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current lifecycle state.
func (i *Interpreter) State() statekit.StateID {
	return i.interp.State().Value
}

// IsTerminal reports whether the lifecycle has reached EXIT.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches reports whether the current state equals stateID.
func (i *Interpreter) Matches(stateID statekit.StateID) bool {
	return i.interp.Matches(stateID)
}

// Context returns the interpreter's lifecycle context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// send dispatches event and reports whether it produced a transition.
// statekit panics on an event with no registered handler in the current
// state, so a rejected transition is recovered here and turned into an
// error instead of crashing the run worker process.
func (i *Interpreter) send(event statekit.EventType) (err error) {
	before := i.State()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("statemachine: event %s rejected in state %s: %v", event, before, r)
		}
	}()
	i.interp.Send(statekit.Event{Type: event})
	if i.State() == before {
		return fmt.Errorf("statemachine: event %s rejected in state %s", event, before)
	}
	return nil
}

// Load transitions IDLE -> LOADING.
func (i *Interpreter) Load() error { return i.send(EventLoad) }

// StartRun transitions LOADING -> RUNNING, gated by taskLoaded.
func (i *Interpreter) StartRun() error {
	i.ctx.TaskLoaded = true
	return i.send(EventRun)
}

// Cancel transitions RUNNING -> CANCELLING.
func (i *Interpreter) Cancel() error { return i.send(EventCancel) }

// Succeed transitions RUNNING or CANCELLING -> TERMINAL_SUCCESS.
func (i *Interpreter) Succeed() error { return i.send(EventSucceed) }

// Fail transitions the current state -> TERMINAL_FAILURE with reason.
func (i *Interpreter) Fail(reason string) error {
	i.ctx.FailReason = reason
	return i.send(EventFail)
}

// Exit transitions a terminal state -> EXIT, running the flush action.
func (i *Interpreter) Exit() error { return i.send(EventExit) }
