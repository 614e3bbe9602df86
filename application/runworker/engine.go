// Package runworker drives a single run worker process through its
// lifecycle: wait for EXECUTE_TASK_RUN, load and run the named task,
// report the outcome, and exit. It is the direct analogue of
// application.Engine's orchestration loop, narrowed to the run worker's
// seven-state lifecycle instead of the agent's multi-step loop.
package runworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskworker/domain/task"
	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/domain/workercontext"
	"github.com/felixgeelhaar/taskworker/infrastructure/errormapper"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc"
	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
	"github.com/felixgeelhaar/taskworker/infrastructure/resilience"
	"github.com/felixgeelhaar/taskworker/infrastructure/statemachine"
)

// heartbeatInterval is how often a running task reports liveness.
const heartbeatInterval = 5 * time.Second

// flushTimeout bounds how long Engine.Run waits for buffered IPC writes
// to land before it gives up and exits anyway.
const flushTimeout = 5 * time.Second

// Engine wires a task registry, an IPC connection, and an execution
// bulkhead into the run worker lifecycle.
type Engine struct {
	registry   *task.Registry
	conn       ipc.Connection
	executor   *resilience.Executor
	taskLogger *logging.TaskLogger

	mu         sync.Mutex
	cancelRun  context.CancelFunc
	cancelOnce sync.Once
}

// New constructs an Engine. taskLogger's sink is set to conn so task-level
// LOG messages forward over the same connection the run is reported on.
func New(registry *task.Registry, conn ipc.Connection, executor *resilience.Executor, taskLogger *logging.TaskLogger) *Engine {
	if taskLogger != nil {
		taskLogger.SetSink(conn)
	}
	return &Engine{registry: registry, conn: conn, executor: executor, taskLogger: taskLogger}
}

// Run blocks until a single task run has been executed and reported, or
// ctx is cancelled (by an OS termination signal relayed through the
// caller's context, per interfaces/cli's signal.NotifyContext idiom).
// When ctx is cancelled while a run is in flight, Run waits for that run
// to report its outcome first. Run installs its own handlers for
// EXECUTE_TASK_RUN, CANCEL, and FLUSH, drives the lifecycle state
// machine, and flushes outbound messages before returning; if
// StartListening fails, Run returns its error without flushing.
func (e *Engine) Run(ctx context.Context) error {
	machine, err := statemachine.NewRunWorkerMachine()
	if err != nil {
		return err
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(""))
	interp.Start()

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	e.conn.On(wire.TypeExecuteTaskRun, e.handleExecute(ctx, interp, closeDone))
	e.conn.On(wire.TypeCancel, e.handleCancel(interp))
	e.conn.On(wire.TypeFlush, e.handleFlush)

	listenErr := make(chan error, 1)
	go func() { listenErr <- e.conn.StartListening(ctx) }()

	select {
	case <-done:
	case <-ctx.Done():
		// The run's context derives from ctx, so the task observes the
		// same cancellation; wait for it to report before flushing.
		e.mu.Lock()
		inFlight := e.cancelRun != nil
		e.mu.Unlock()
		if inFlight {
			<-done
		}
	case err := <-listenErr:
		if err != nil {
			return err
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := e.conn.Flush(flushCtx); err != nil {
		logging.Warn().Add(logging.Component("runworker")).Add(logging.ErrorField(err)).Msg("flush before exit did not complete cleanly")
	}
	_ = e.conn.Stop()
	_ = interp.Exit()
	return nil
}

// handleExecute resolves the named task, spawns its execution on its own
// goroutine (the dispatch loop must stay free to deliver a concurrent
// CANCEL), and reports the outcome once it's known.
func (e *Engine) handleExecute(rootCtx context.Context, interp *statemachine.Interpreter, done func()) ipc.Handler {
	return func(_ context.Context, msg wire.Message) error {
		exec := msg.(wire.ExecuteTaskRun).Execution

		if err := interp.Load(); err != nil {
			logging.Error().Add(logging.ErrorField(err)).Msg("lifecycle rejected LOAD")
		}

		runCtx, cancel := context.WithCancel(rootCtx)
		e.mu.Lock()
		e.cancelRun = cancel
		e.mu.Unlock()

		go func() {
			defer done()
			defer cancel()
			e.executeRun(runCtx, exec, interp)
		}()
		return nil
	}
}

// handleCancel cancels the in-flight run's context, at most once, and
// moves the lifecycle to CANCELLING. An OS signal instead cancels the
// root context given to Run, which is the parent of the run's context,
// so both end the run the same way: the task observes a cancelled
// context and the run is reported once, as TASK_RUN_CANCELLED.
func (e *Engine) handleCancel(interp *statemachine.Interpreter) ipc.Handler {
	return func(_ context.Context, _ wire.Message) error {
		e.cancelOnce.Do(func() {
			e.mu.Lock()
			cancel := e.cancelRun
			e.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			_ = interp.Cancel()
		})
		return nil
	}
}

func (e *Engine) handleFlush(ctx context.Context, msg wire.Message) error {
	flush := msg.(wire.Flush)
	timeout := flushTimeout
	if flush.TimeoutInMs > 0 {
		timeout = time.Duration(flush.TimeoutInMs) * time.Millisecond
	}
	flushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.conn.Flush(flushCtx)
}

func (e *Engine) executeRun(ctx context.Context, exec wire.TaskRunExecution, interp *statemachine.Interpreter) {
	tc := workercontext.FromExecution(exec)
	ctx = workercontext.With(ctx, tc)

	t, ok := e.registry.Get(exec.Task.ID)
	if !ok {
		err := &errormapper.ErrImportFailed{FilePath: exec.Task.FilePath, Cause: task.ErrTaskNotFound}
		e.reportFailure(interp, exec.Run.ID, 0, errormapper.Map(err, ""))
		return
	}

	if err := interp.StartRun(); err != nil {
		e.reportFailure(interp, exec.Run.ID, 0, errormapper.Map(err, ""))
		return
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go e.runHeartbeat(hbCtx, &hbWG, exec.Run.ID)

	execCtx := ctx
	if t.MaxDuration() > 0 {
		var timeoutCancel context.CancelFunc
		execCtx, timeoutCancel = context.WithTimeout(ctx, t.MaxDuration())
		defer timeoutCancel()
	}

	startedAt := time.Now()
	output, err := e.executor.Execute(execCtx, func(c context.Context) (out json.RawMessage, execErr error) {
		defer func() {
			if r := recover(); r != nil {
				execErr = panicError{value: r, stack: string(debug.Stack())}
			}
		}()
		payload := json.RawMessage(exec.Run.Payload)
		if len(payload) > 0 && !json.Valid(payload) {
			return nil, &errormapper.ErrTaskInput{Cause: fmt.Errorf("payload is not valid JSON")}
		}
		return t.Execute(c, payload)
	})
	durationMs := time.Since(startedAt).Milliseconds()

	hbCancel()
	hbWG.Wait()

	if err != nil {
		var pe panicError
		stack := ""
		if errors.As(err, &pe) {
			stack = pe.stack
		}
		e.reportFailure(interp, exec.Run.ID, durationMs, errormapper.Map(err, stack))
		return
	}

	if err := interp.Succeed(); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("lifecycle rejected SUCCEED")
	}
	completion := wire.TaskRunSuccessfulExecutionResult{
		Ok:         true,
		ID:         exec.Run.ID,
		Output:     string(output),
		OutputType: "application/json",
		Usage:      wire.TaskRunExecutionUsage{DurationMs: durationMs},
	}
	if err := e.conn.Send(wire.TaskRunCompleted{Completion: completion}); err != nil {
		logging.Error().Add(logging.Component("runworker")).Add(logging.ErrorField(err)).Msg("failed to send TASK_RUN_COMPLETED")
	}
}

func (e *Engine) reportFailure(interp *statemachine.Interpreter, runID string, durationMs int64, wireErr wire.TaskRunError) {
	if err := interp.Fail(wireErr.Error()); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("lifecycle rejected FAIL")
	}
	completion := wire.TaskRunFailedExecutionResult{
		Ok:    false,
		ID:    runID,
		Error: wireErr,
		Usage: wire.TaskRunExecutionUsage{DurationMs: durationMs},
	}
	if err := e.conn.Send(wire.TaskRunFailedToRun{Completion: completion}); err != nil {
		logging.Error().Add(logging.Component("runworker")).Add(logging.ErrorField(err)).Msg("failed to send TASK_RUN_FAILED_TO_RUN")
	}
}

func (e *Engine) runHeartbeat(ctx context.Context, wg *sync.WaitGroup, runID string) {
	defer wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.conn.Send(wire.TaskHeartbeat{RunID: runID}); err != nil {
				logging.Warn().Add(logging.Component("runworker")).Add(logging.ErrorField(err)).Msg("failed to send heartbeat")
			}
		}
	}
}

// panicError wraps a recovered panic value as an error carrying the
// stack trace captured at the moment of recovery, so errormapper.Map can
// attach it to the reported TaskRunError.
type panicError struct {
	value any
	stack string
}

func (p panicError) Error() string { return "task panicked: " + errString(p.value) }

func errString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return stringify(v)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}

