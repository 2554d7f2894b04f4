package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledgerbook/internal/cli"
	"ledgerbook/internal/log"
	"ledgerbook/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	if cfg.CommandTransport != "amqp" {
		logger.Error("ledger-worker needs COMMAND_TRANSPORT=amqp", "command_transport", cfg.CommandTransport)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	stack := cli.BuildStack(ctx, cfg, logger)
	commands := worker.NewCommandWorker(stack.Local, stack.Cache)

	err := stack.Broker.ConsumeCommands(ctx, commands.HandleCommand)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Command consumption failed", "error", err)
	}

	applied, failed := commands.Stats()
	logger.Info("Shutting down worker...", "applied", applied, "failed", failed)

	if shutdownErr := cli.Shutdown(logger, 10*time.Second,
		func(context.Context) error { return stack.Close() },
	); shutdownErr != nil || (err != nil && !errors.Is(err, context.Canceled)) {
		os.Exit(1)
	}
}
