package main

import (
	"context"
	"os"
	"time"

	"ledgerbook/internal/cli"
	"ledgerbook/internal/log"
	"ledgerbook/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	stack := cli.BuildStack(ctx, cfg, logger)

	scheduler := services.NewScheduler(stack.Processor, services.SchedulerConfig{
		Interval:   cfg.ProcessorInterval,
		RunOnStart: true,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start recurring scheduler", "error", err)
		_ = stack.Close()
		os.Exit(1)
	}
	logger.Info("Recurring processor configured",
		"interval", cfg.ProcessorInterval,
		"backend", cfg.DataBackend,
		"timezone", cfg.Timezone)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	err := cli.Shutdown(logger, 30*time.Second,
		scheduler.Stop,
		func(context.Context) error { return stack.Close() },
	)
	if err != nil {
		os.Exit(1)
	}
}
