package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskworker/application/indexer"
	"github.com/felixgeelhaar/taskworker/domain/task"
	"github.com/felixgeelhaar/taskworker/infrastructure/config"
)

type indexOptions struct {
	manifestPath     string
	grpcAddress      string
	workerEntryPoint string
	streaming        bool
}

func (a *App) newIndexCmd() *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Load the build manifest's task files and report the catalog",
		Long: `index loads every task file named in the build manifest into the
in-process task registry, then reports the resulting catalog (and any
per-file import errors) to the coordinator over the IPC connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, opts)
		},
	}

	env := config.FromEnv()
	cmd.Flags().StringVar(&opts.manifestPath, "manifest", env.BuildManifestPath, "Path to the build manifest (TRIGGER_BUILD_MANIFEST_PATH)")
	cmd.Flags().StringVar(&opts.grpcAddress, "grpc-address", env.GRPCAddress, "gRPC address to connect to instead of stdio (TRIGGER_GRPC_ADDRESS)")
	cmd.Flags().StringVar(&opts.workerEntryPoint, "entry-point", "", "Worker entry point file path recorded in the catalog")
	cmd.Flags().BoolVar(&opts.streaming, "streaming", false, "Report the catalog via the streaming IndexTasksComplete message")

	return cmd
}

func (a *App) runIndex(cmd *cobra.Command, opts *indexOptions) error {
	ctx := cmd.Context()

	manifest, err := indexer.LoadManifest(opts.manifestPath)
	if err != nil {
		return err
	}

	conn, closeConn, err := openConnection(ctx, opts.grpcAddress)
	if err != nil {
		return err
	}
	defer closeConn()

	ix := indexer.New(task.Default, conn)
	return ix.Run(ctx, manifest, opts.workerEntryPoint, opts.streaming)
}
