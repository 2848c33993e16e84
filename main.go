package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkarlsen/stratagem/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx); err != nil {
		os.Exit(1)
	}
}
