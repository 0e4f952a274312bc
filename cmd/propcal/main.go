package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"propcal/internal/cli"
	appLog "propcal/internal/log"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		appLog.Error("propcal failed", err)
		stop()
		os.Exit(1)
	}
}
