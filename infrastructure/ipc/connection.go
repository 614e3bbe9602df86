// Package ipc defines the abstract connection contract shared by the
// stdio and RPC transports: send/on/startListening/flush/stop. Handler
// dispatch is serialized per connection so user handlers never run
// concurrently with each other.
package ipc

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/taskworker/domain/wire"
)

// ErrNotRunning reports that a connection is not running. The stdio and
// rpc transports in this module do not return it: their Send and Flush
// do not check whether StartListening is running.
var ErrNotRunning = errors.New("ipc: connection not running")

// Handler processes a single inbound message. Returning an error is
// logged as a diagnostic and never crashes the listen loop.
type Handler func(ctx context.Context, msg wire.Message) error

// Connection is the abstract IPC contract implemented by every
// transport (stdio, rpc).
type Connection interface {
	// Send transmits a worker->coordinator message. Implementations must
	// make this safe to call concurrently from multiple goroutines
	// (the heartbeat loop and the run loop both call it).
	Send(msg wire.Message) error

	// On registers the handler invoked for inbound messages of the
	// given type. Registering a second handler for the same type
	// replaces the first.
	On(msgType string, h Handler)

	// StartListening blocks, dispatching inbound messages to registered
	// handlers one at a time, until ctx is cancelled or the transport's
	// read side closes (EOF for stdio, stream end for RPC).
	StartListening(ctx context.Context) error

	// Flush blocks until all messages handed to Send have been written,
	// or ctx is cancelled.
	Flush(ctx context.Context) error

	// Stop releases the connection's resources. Safe to call more than
	// once.
	Stop() error

	// IsRunning reports whether StartListening is currently running: it
	// has been called, has not returned, and Stop has not been called.
	IsRunning() bool
}
