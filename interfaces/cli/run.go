package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskworker/application/runworker"
	"github.com/felixgeelhaar/taskworker/domain/task"
	"github.com/felixgeelhaar/taskworker/infrastructure/config"
	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
	"github.com/felixgeelhaar/taskworker/infrastructure/resilience"
	"github.com/felixgeelhaar/taskworker/infrastructure/tracing"
)

type runOptions struct {
	grpcAddress   string
	maxConcurrent int
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a single run worker lifecycle against a coordinator",
		Long: `run blocks for the lifetime of the worker process: it waits for
an EXECUTE_TASK_RUN message from the coordinator, executes the named
task, reports the outcome, and exits. SIGINT and SIGTERM cancel the
current run cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorker(cmd, opts)
		},
	}

	env := config.FromEnv()
	cmd.Flags().StringVar(&opts.grpcAddress, "grpc-address", env.GRPCAddress, "gRPC address to connect to instead of stdio (TRIGGER_GRPC_ADDRESS)")
	cmd.Flags().IntVar(&opts.maxConcurrent, "max-concurrent", 1, "Maximum concurrent task executions within this process")

	return cmd
}

func (a *App) runWorker(cmd *cobra.Command, opts *runOptions) error {
	ctx := tracing.ContextWithTraceParent(cmd.Context(), config.FromEnv().TraceParent)

	conn, closeConn, err := openConnection(ctx, opts.grpcAddress)
	if err != nil {
		return err
	}
	defer closeConn()

	executor := resilience.NewExecutor(opts.maxConcurrent)
	taskLogger := logging.NewTaskLogger()

	engine := runworker.New(task.Default, conn, executor, taskLogger)
	return engine.Run(ctx)
}
