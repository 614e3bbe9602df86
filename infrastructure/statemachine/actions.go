package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
)

// logStateEntry logs every lifecycle state transition. Actions receive a
// pointer to the context pointer: our context is *Context, so the action
// parameter type is **Context.
func logStateEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	logging.Debug().
		Add(logging.RunID(c.RunID)).
		Add(logging.Str("event", string(event.Type))).
		Msg("run worker lifecycle transition")
}

// actionStartHeartbeat is a hook point for heartbeat startup logging; the
// heartbeat goroutine itself is owned and joined by application/runworker,
// which has the ipc.Connection this action does not.
func actionStartHeartbeat(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	logging.Debug().Add(logging.RunID((*ctx).RunID)).Msg("heartbeat started")
}

func actionStopHeartbeat(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	logging.Debug().Add(logging.RunID((*ctx).RunID)).Msg("heartbeat stopped")
}

func actionFlushAndExit(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	logging.Debug().Add(logging.RunID((*ctx).RunID)).Msg("flushing before exit")
}
