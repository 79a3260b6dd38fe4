package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rshade/promptbatch/internal/cli"
	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/pkg/version"
)

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitBatchFailed = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to an exit code. A batch that finished
// with rows missing credentials exits with 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, batch.ErrBatchFailed):
		return exitBatchFailed
	default:
		return exitError
	}
}
