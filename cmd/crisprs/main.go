// Command crisprs builds CRISPR site indexes and finds off-targets.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coronin/Crisprs/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], cli.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	stop()
	os.Exit(code)
}
