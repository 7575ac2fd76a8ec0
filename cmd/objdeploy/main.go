// Command objdeploy deploys SQL object definitions (views, schemas, tables)
// to a warehouse concurrently and reports the outcome per object.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"golang.org/x/sys/unix"

	// register all backends with the storage factory.
	_ "objdeploy/internal/storage/all"
)

var (
	// errDeployFailed marks a finished run with at least one error result.
	// Its details have already been printed.
	errDeployFailed = errors.New("deployment finished with errors")
	errInterrupted  = errors.New("deployment interrupted")
)

func main() {
	// load the .env file if it exists
	_ = godotenv.Load()

	ctx, stop := interruptContext(context.Background())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

var notifyContext = signal.NotifyContext

// interruptContext is cancelled by the first SIGINT or SIGTERM. The handler
// is then released, so a second signal kills the process while in-flight
// statements are still draining.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := notifyContext(parent, os.Interrupt, unix.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// run executes the command line and maps the outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDeployFailed):
		return 1
	case errors.Is(err, errInterrupted), ctx.Err() != nil:
		fmt.Fprintln(stdout, "Deployment interrupted by user")
		return 1
	default:
		fmt.Fprintf(stderr, "Fatal error: %v\n", err)
		return 1
	}
}
