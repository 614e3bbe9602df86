// Package rpc implements the gRPC bidirectional-streaming IPC transport.
// It carries the same domain/wire JSON messages the stdio transport
// does; jsonCodec (codec.go) lets it do so without protoc-generated
// stubs, using grpc's low-level NewStream entry point against a
// conventional method name instead of a generated client.
package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc"
	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
)

// connectMethod is the fixed, conventional method path the coordinator's
// gRPC server exposes for the worker's bidirectional stream.
const connectMethod = "/worker.WorkerService/Connect"

var streamDesc = grpc.StreamDesc{
	StreamName:    "Connect",
	ServerStreams: true,
	ClientStreams: true,
}

// Dial opens a gRPC channel to address, which is either "unix:/path" or
// "host:port" per the TRIGGER_GRPC_ADDRESS contract.
func Dial(ctx context.Context, address string) (*grpc.ClientConn, error) {
	return grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainStreamInterceptor(otelgrpc.StreamClientInterceptor()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
}

// Connection implements ipc.Connection over a single bidirectional gRPC
// stream, decoding inbound frames with decode (coordinator messages, for
// a run worker process).
type Connection struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream
	decode func([]byte) (wire.Message, error)

	sendMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   map[string]ipc.Handler

	inflightWG sync.WaitGroup
	running    atomic.Bool
}

// New opens the worker stream over conn.
func New(ctx context.Context, conn *grpc.ClientConn, decode func([]byte) (wire.Message, error)) (*Connection, error) {
	stream, err := conn.NewStream(ctx, &streamDesc, connectMethod)
	if err != nil {
		return nil, fmt.Errorf("rpc: opening stream: %w", err)
	}
	return &Connection{
		conn:     conn,
		stream:   stream,
		decode:   decode,
		handlers: make(map[string]ipc.Handler),
	}, nil
}

// Send transmits msg over the stream.
func (c *Connection) Send(msg wire.Message) error {
	c.inflightWG.Add(1)
	defer c.inflightWG.Done()

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.stream.SendMsg(msg)
}

// On registers h for msgType, replacing any prior handler.
func (c *Connection) On(msgType string, h ipc.Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[msgType] = h
}

// StartListening reads frames from the stream until it ends or ctx is
// cancelled, dispatching each to its registered handler one at a time.
// Malformed frames, missing types, unknown types, and handler errors are
// logged and never stop the loop; stream teardown before a terminal
// message has been sent is the caller's responsibility to detect via the
// returned error.
func (c *Connection) StartListening(ctx context.Context) error {
	c.running.Store(true)
	defer c.running.Store(false)

	for {
		var f frame
		if err := c.stream.RecvMsg(&f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.dispatch(ctx, f.Data)
	}
}

func (c *Connection) dispatch(ctx context.Context, data []byte) {
	msg, err := c.decode(data)
	if err != nil {
		logging.Warn().Add(logging.Component("ipc/rpc")).Add(logging.ErrorField(err)).Msg("discarding malformed frame")
		return
	}

	c.handlersMu.RLock()
	h, ok := c.handlers[msg.Type()]
	c.handlersMu.RUnlock()
	if !ok {
		logging.Warn().Add(logging.Component("ipc/rpc")).Add(logging.Str("type", msg.Type())).Msg("no handler registered for message type")
		return
	}

	if err := h(ctx, msg); err != nil {
		logging.Error().Add(logging.Component("ipc/rpc")).Add(logging.ErrorField(err)).Msg("handler returned an error")
	}
}

// Flush waits for in-flight Send calls to finish writing to the stream.
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

// Stop closes the send side of the stream and the underlying channel.
func (c *Connection) Stop() error {
	c.running.Store(false)
	_ = c.stream.CloseSend()
	return c.conn.Close()
}

// IsRunning reports whether StartListening is currently reading.
func (c *Connection) IsRunning() bool {
	return c.running.Load()
}

var _ ipc.Connection = (*Connection)(nil)
