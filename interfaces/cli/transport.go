package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/taskworker/domain/wire"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc/rpc"
	"github.com/felixgeelhaar/taskworker/infrastructure/ipc/stdio"
)

// openConnection builds the IPC connection this worker process
// communicates with its coordinator over. An empty grpcAddress selects
// the stdio transport; otherwise the RPC transport dials grpcAddress.
func openConnection(ctx context.Context, grpcAddress string) (ipc.Connection, func(), error) {
	if grpcAddress == "" {
		conn := stdio.New(os.Stdin, os.Stdout, wire.DecodeCoordinatorMessage)
		return conn, func() {}, nil
	}

	clientConn, err := rpc.Dial(ctx, grpcAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing %s: %w", grpcAddress, err)
	}
	conn, err := rpc.New(ctx, clientConn, wire.DecodeCoordinatorMessage)
	if err != nil {
		_ = clientConn.Close()
		return nil, nil, fmt.Errorf("opening stream to %s: %w", grpcAddress, err)
	}
	return conn, func() { _ = clientConn.Close() }, nil
}
