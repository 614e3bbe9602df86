// Package stdio implements the line-delimited JSON IPC transport over
// the process's standard streams: outbound messages are written to
// stdout, inbound messages are read from stdin, diagnostics go to
// stderr via infrastructure/logging. stdout is this package's exclusive
// writer — no other part of the runtime may write to it.
package stdio

import (
	"bufio"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc"
	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
)

// maxLineSize bumps the scanner buffer past bufio's 64KiB default: task
// payloads routinely exceed it.
const maxLineSize = 16 * 1024 * 1024

// Connection implements ipc.Connection over stdin/stdout.
type Connection struct {
	in  io.Reader
	out io.Writer

	writeMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   map[string]ipc.Handler

	inflightWG sync.WaitGroup
	running    atomic.Bool
	decode     func([]byte) (wire.Message, error)
}

// New constructs a stdio Connection reading from in and writing to out.
// decode selects which wire decoder (worker or coordinator messages)
// this side of the connection expects to receive; a run worker process
// reads coordinator messages, so it passes wire.DecodeCoordinatorMessage.
func New(in io.Reader, out io.Writer, decode func([]byte) (wire.Message, error)) *Connection {
	return &Connection{
		in:       in,
		out:      out,
		handlers: make(map[string]ipc.Handler),
		decode:   decode,
	}
}

// Send serialises msg and writes it as a single newline-terminated JSON
// line, guarded by a mutex so concurrent callers never interleave bytes.
func (c *Connection) Send(msg wire.Message) error {
	c.inflightWG.Add(1)
	defer c.inflightWG.Done()

	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.out.Write(data)
	return err
}

// On registers h for msgType, replacing any prior handler for it.
func (c *Connection) On(msgType string, h ipc.Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[msgType] = h
}

// StartListening reads newline-delimited JSON from stdin until EOF or
// ctx cancellation, dispatching each line to its registered handler one
// at a time. Malformed lines, missing types, unknown types, and handler
// errors are all logged and never stop the loop.
func (c *Connection) StartListening(ctx context.Context) error {
	c.running.Store(true)
	defer c.running.Store(false)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			cp := make([]byte, len(line))
			copy(cp, line)
			select {
			case lines <- cp:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			c.dispatch(ctx, line)
		}
	}
}

func (c *Connection) dispatch(ctx context.Context, line []byte) {
	msg, err := c.decode(line)
	if err != nil {
		logging.Warn().Add(logging.Component("ipc/stdio")).Add(logging.ErrorField(err)).Msg("discarding malformed message")
		return
	}

	c.handlersMu.RLock()
	h, ok := c.handlers[msg.Type()]
	c.handlersMu.RUnlock()
	if !ok {
		logging.Warn().Add(logging.Component("ipc/stdio")).Add(logging.Str("type", msg.Type())).Msg("no handler registered for message type")
		return
	}

	if err := h(ctx, msg); err != nil {
		logging.Error().Add(logging.Component("ipc/stdio")).Add(logging.ErrorField(err)).Msg("handler returned an error")
	}
}

// Flush waits until every Send call that had started when Flush was
// invoked has completed its write, or ctx is cancelled.
func (c *Connection) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflightWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop marks the connection as no longer running. The underlying
// stdin/stdout streams are owned by the process, not this type, so Stop
// does not close them.
func (c *Connection) Stop() error {
	c.running.Store(false)
	return nil
}

// IsRunning reports whether StartListening is currently reading.
func (c *Connection) IsRunning() bool {
	return c.running.Load()
}

var _ ipc.Connection = (*Connection)(nil)
