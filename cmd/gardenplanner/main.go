// Command gardenplanner manages beds, year plans, garden grids and visual
// designs against a plant catalog from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gardenplanner/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(in, out, errOut)
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := a.shutdown(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotConfirmed):
		return 3
	case domain.IsValidation(err), domain.IsNotFound(err):
		return 2
	default:
		return 1
	}
}
