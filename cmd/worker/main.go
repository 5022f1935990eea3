package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"gavel/internal/app/bootstrap"
)

// Worker process entrypoint: expiry settlement, award sweeping and outbox
// relays, all driven on a poll interval.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("build worker: %v", err)
	}
	defer func() {
		_ = app.Close()
	}()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("run worker: %v", err)
	}
}
