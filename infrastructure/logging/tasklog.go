package logging

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/domain/workercontext"
)

// Sink is the minimal surface TaskLogger needs from an IPC connection:
// a single best-effort send. infrastructure/ipc.Connection satisfies
// this. A sink that also has an IsRunning method is used only while it
// reports true.
type Sink interface {
	Send(m wire.Message) error
}

// TaskLogger forwards task-level log lines to the coordinator over an
// IPC sink when one is installed and running, falling back to stderr
// (via the package-level diagnostic logger) whenever the sink is absent
// or a send fails. It never writes to stdout.
type TaskLogger struct {
	mu      sync.RWMutex
	sink    Sink
	running atomic.Bool
}

// NewTaskLogger constructs a TaskLogger with no sink installed; it logs
// to stderr until SetSink is called.
func NewTaskLogger() *TaskLogger {
	return &TaskLogger{}
}

// SetSink installs (or clears, with nil) the IPC connection log lines
// are forwarded to.
func (l *TaskLogger) SetSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
	l.running.Store(sink != nil)
}

func (l *TaskLogger) log(ctx context.Context, level wire.LogLevel, msg string, fields map[string]any) {
	tc, _ := workercontext.From(ctx)

	if l.running.Load() {
		l.mu.RLock()
		sink := l.sink
		l.mu.RUnlock()
		if r, ok := sink.(interface{ IsRunning() bool }); ok && !r.IsRunning() {
			sink = nil
		}
		if sink != nil {
			m := wire.Log{Level: level, Message: msg}
			if tc != nil {
				m.TaskID = tc.Task.ID
				m.RunID = tc.Run.ID
			}
			if len(fields) > 0 {
				if raw, err := json.Marshal(fields); err == nil {
					m.Fields = raw
				}
			}
			if err := sink.Send(m); err == nil {
				return
			}
		}
	}

	l.logToStderr(level, msg, tc, fields)
}

func (l *TaskLogger) logToStderr(level wire.LogLevel, msg string, tc *workercontext.TaskContext, fields map[string]any) {
	ev := eventForLevel(level)
	if tc != nil {
		ev = ev.Add(TaskID(tc.Task.ID)).Add(RunID(tc.Run.ID)).Add(AttemptNumber(tc.Attempt.Number))
	}
	for k, v := range fields {
		if s, ok := v.(string); ok {
			ev = ev.Add(Str(k, s))
		}
	}
	ev.Msg(msg)
}

func eventForLevel(level wire.LogLevel) *LogEvent {
	switch level {
	case wire.LevelDebug:
		return Debug()
	case wire.LevelWarn:
		return Warn()
	case wire.LevelError:
		return Error()
	default:
		return Info()
	}
}

func (l *TaskLogger) Debug(ctx context.Context, msg string, fields map[string]any) {
	l.log(ctx, wire.LevelDebug, msg, fields)
}
func (l *TaskLogger) InfoMsg(ctx context.Context, msg string, fields map[string]any) {
	l.log(ctx, wire.LevelInfo, msg, fields)
}
func (l *TaskLogger) Warning(ctx context.Context, msg string, fields map[string]any) {
	l.log(ctx, wire.LevelWarn, msg, fields)
}
func (l *TaskLogger) ErrorMsg(ctx context.Context, msg string, fields map[string]any) {
	l.log(ctx, wire.LevelError, msg, fields)
}
