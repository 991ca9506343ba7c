// cmd/evalcrawl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/evalcrawl/internal/cli"
)

func main() {
	// Cancel the root context on interrupt; the crawler drops the in-flight
	// batch and returns after the last completed one is saved
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
