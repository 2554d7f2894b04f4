package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"ledgerbook/internal/cache"
	"ledgerbook/internal/transport"
)

// Applier executes a command against the store.
type Applier interface {
	Apply(ctx context.Context, cmd transport.Command) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, datasets ...cache.Dataset)
}

// CommandWorker applies queued commands to the store and drops the cached
// copy of the dataset each one touched.
type CommandWorker struct {
	store Applier
	cache Invalidator

	applied atomic.Int64
	failed  atomic.Int64
}

func NewCommandWorker(store Applier, inv Invalidator) *CommandWorker {
	return &CommandWorker{store: store, cache: inv}
}

// HandleCommand processes a single command delivered by the queue. Errors
// wrapping transport.ErrInvalidCommand are permanent.
func (w *CommandWorker) HandleCommand(ctx context.Context, cmd transport.Command) error {
	slog.InfoContext(ctx, "Processing command",
		"command_id", cmd.ID,
		"operation", cmd.Operation.String())

	if err := w.store.Apply(ctx, cmd); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("apply command %s: %w", cmd.ID, err)
	}
	w.applied.Add(1)

	if w.cache != nil {
		w.cache.Invalidate(ctx, datasetOf(cmd.Operation))
	}
	return nil
}

// Stats returns the number of commands applied and failed so far.
func (w *CommandWorker) Stats() (applied, failed int64) {
	return w.applied.Load(), w.failed.Load()
}

func datasetOf(op transport.Operation) cache.Dataset {
	if op.Recurring() {
		return cache.RecurringTransactions
	}
	return cache.Transactions
}
