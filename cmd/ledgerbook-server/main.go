package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerbook/internal/cli"
	apphttp "ledgerbook/internal/http"
	"ledgerbook/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentHTTP)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	stack := cli.BuildStack(ctx, cfg, logger)
	loc, _ := cfg.Location()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Processor:     stack.Processor,
		Rules:         stack.Rules,
		Ledger:        stack.Gateway,
		AutoRunOnList: true,
		Location:      loc,
	})

	// Prime the cache so the first page load does not wait on the backend.
	stack.Gateway.WarmLedger(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting ledgerbook server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"command_transport", cfg.CommandTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		return cli.Shutdown(logger, 30*time.Second,
			srv.Shutdown,
			func(context.Context) error { return stack.Close() },
		)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	m := srv.Metrics()
	logger.Info("Server stopped gracefully", "requests", m.TotalRequests, "failed_requests", m.FailedRequests)
}
