package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardTaskLoaded gates LOADING -> RUNNING: a run may only start once its
// task has been resolved from the registry.
func guardTaskLoaded(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	return ctx.TaskLoaded
}
