// Command worker is the entry point for the task worker process: a
// coordinator launches it once per build to index tasks, and once per
// run to execute a single task.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/taskworker/infrastructure/logging"
	"github.com/felixgeelhaar/taskworker/interfaces/cli"
)

func main() {
	logging.Init(logging.ProductionConfig())

	app := cli.New()
	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
