package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ledgerbook/internal/cache"
	"ledgerbook/internal/core"
	"ledgerbook/internal/transport"
)

type (
	// RuleStore is the rule side of the gateway the engine needs.
	RuleStore interface {
		ListRules(ctx context.Context) ([]core.RecurringRule, error)
		FetchRule(ctx context.Context, id string) (core.RecurringRule, bool, error)
		UpdateRule(ctx context.Context, id string, u core.RuleUpdate) (transport.Dispatch, error)
	}

	LedgerWriter interface {
		AppendEntry(ctx context.Context, e core.LedgerEntry) (transport.Dispatch, error)
	}

	Invalidator interface {
		Invalidate(ctx context.Context, datasets ...cache.Dataset)
	}
)

// Mode tells a silent run from one a person asked for.
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// ProcessorConfig holds configuration for the processing engine
type ProcessorConfig struct {
	// ReloadDelay is how long after a batch the reload hook runs (default: 1.5s)
	ReloadDelay time.Duration

	// Location decides which calendar day "today" is (default: time.Local)
	Location *time.Location

	// Clock returns the current time (default: time.Now)
	Clock func() time.Time
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		ReloadDelay: 1500 * time.Millisecond,
		Location:    time.Local,
		Clock:       time.Now,
	}
}

// Processor materializes due recurring rules into ledger entries.
type Processor struct {
	rules  RuleStore
	ledger LedgerWriter
	cache  Invalidator
	guard  *Guard
	config ProcessorConfig
	reload func(ctx context.Context)

	mu          sync.Mutex
	reloadTimer *time.Timer
	stopped     bool
}

func NewProcessor(rules RuleStore, ledger LedgerWriter, inv Invalidator, guard *Guard, config ProcessorConfig) *Processor {
	def := DefaultProcessorConfig()
	if config.ReloadDelay <= 0 {
		config.ReloadDelay = def.ReloadDelay
	}
	if config.Location == nil {
		config.Location = def.Location
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if guard == nil {
		guard = NewGuard()
	}
	return &Processor{rules: rules, ledger: ledger, cache: inv, guard: guard, config: config}
}

// OnReload registers a hook scheduled ReloadDelay after every batch.
func (p *Processor) OnReload(fn func(ctx context.Context)) {
	p.reload = fn
}

// AutoRun runs a silent batch. The outcome only reaches the logs.
func (p *Processor) AutoRun(ctx context.Context) {
	p.Process(ctx, ModeAuto)
}

// RunManual runs a batch and returns its summary for display.
func (p *Processor) RunManual(ctx context.Context) Summary {
	return p.Process(ctx, ModeManual)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFailed
	outcomeAdvanced
	outcomeRetired
	outcomeStuck // materialized, schedule write failed
)

// Process runs one batch over the rules due today. A failing rule never
// stops the rules after it; cancellation stops the batch between rules.
func (p *Processor) Process(ctx context.Context, mode Mode) Summary {
	now := p.config.Clock().In(p.config.Location)
	today := core.DateOf(now)
	start := time.Now()

	var summary Summary
	rules, err := p.rules.ListRules(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list recurring rules", "mode", mode.String(), "error", err)
		summary.Errors = append(summary.Errors, &RuleError{Stage: StageList, Err: err})
		return summary
	}

	due := core.SelectDue(rules, today)
	summary.Total = len(due)
	slog.InfoContext(ctx, "Processing recurring rules",
		"mode", mode.String(),
		"total_rules", len(rules),
		"due", len(due),
		"today", today.String())

	for _, r := range due {
		if ctx.Err() != nil {
			summary.Cancelled = true
			slog.WarnContext(ctx, "Recurring batch cancelled", "reason", ctx.Err())
			break
		}
		result, ruleErr := p.processRule(ctx, r.ID, now, today)
		switch result {
		case outcomeSkipped:
			summary.Skipped++
		case outcomeAdvanced:
			summary.Processed++
		case outcomeRetired:
			summary.Processed++
			summary.Retired++
		case outcomeStuck:
			summary.Processed++
		}
		if ruleErr != nil {
			summary.Errors = append(summary.Errors, ruleErr)
		}
	}

	p.cache.Invalidate(context.WithoutCancel(ctx), cache.Transactions, cache.RecurringTransactions)
	p.scheduleReload(ctx)

	slog.InfoContext(ctx, "Recurring processing complete",
		"mode", mode.String(),
		"processed", summary.Processed,
		"retired", summary.Retired,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"total_due", summary.Total,
		"duration", time.Since(start))
	return summary
}

// scheduleReload arms the reload hook. A newer batch supersedes a pending
// reload; nothing is armed once the processor is stopped.
func (p *Processor) scheduleReload(ctx context.Context) {
	if p.reload == nil {
		return
	}
	hook := p.reload
	detached := context.WithoutCancel(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.reloadTimer != nil {
		p.reloadTimer.Stop()
	}
	p.reloadTimer = time.AfterFunc(p.config.ReloadDelay, func() { hook(detached) })
}

// Stop cancels a pending reload and disables future ones. Batches may still
// run; call it before closing the stores the hook reads from.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.reloadTimer != nil {
		p.reloadTimer.Stop()
		p.reloadTimer = nil
	}
}

func (p *Processor) processRule(ctx context.Context, id string, now time.Time, today core.Date) (outcome, *RuleError) {
	if !p.guard.TryAcquire(id) {
		slog.DebugContext(ctx, "Rule already being processed, skipping",
			"rule_id", id,
			"in_flight", p.guard.InFlight())
		return outcomeSkipped, nil
	}
	defer p.guard.Release(id)

	r, found, err := p.rules.FetchRule(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to re-read recurring rule", "rule_id", id, "error", err)
		return outcomeFailed, &RuleError{RuleID: id, Stage: StageVerify, Err: err}
	}
	if !found {
		slog.DebugContext(ctx, "Rule vanished before processing, skipping", "rule_id", id)
		return outcomeSkipped, nil
	}
	if reason := p.skipReason(r, today); reason != "" {
		slog.DebugContext(ctx, "Skipping recurring rule", "rule_id", id, "reason", reason)
		return outcomeSkipped, nil
	}
	if !r.Frequency.Valid() {
		slog.WarnContext(ctx, "Unknown frequency, next occurrence falls back to one day", "rule_id", id)
	}

	entry := core.Materialize(r, now)
	if _, err := p.ledger.AppendEntry(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "Failed to write ledger entry for recurring rule",
			"rule_id", id,
			"payee", r.Payee,
			"error", err)
		return outcomeFailed, &RuleError{RuleID: id, Stage: StageMaterialize, Err: err}
	}

	next := core.NextOccurrence(*r.NextDue, r.Frequency)
	update := core.ScheduleUpdate{NextDue: &next, LastProcessed: now}
	result := outcomeAdvanced
	if r.EndDate != nil && (r.EndDate.Equal(today) || next.After(*r.EndDate)) {
		update.NextDue = nil
		result = outcomeRetired
	}

	if _, err := p.rules.UpdateRule(ctx, id, core.RuleUpdate{Schedule: &update}); err != nil {
		slog.ErrorContext(ctx, "Ledger entry written but schedule not advanced",
			"rule_id", id,
			"next_due", next.String(),
			"error", err)
		return outcomeStuck, &RuleError{RuleID: id, Stage: StageAdvance, Err: err}
	}

	if result == outcomeRetired {
		slog.InfoContext(ctx, "Recurring rule retired", "rule_id", id, "payee", r.Payee)
	} else {
		slog.InfoContext(ctx, "Recurring rule advanced",
			"rule_id", id,
			"payee", r.Payee,
			"amount", core.FormatAmount(r.Amount),
			"next_due", next.String())
	}
	return result, nil
}

// skipReason re-checks the fresh rule state and names the first check that
// fails, or returns "" when the rule may be materialized.
func (p *Processor) skipReason(r core.RecurringRule, today core.Date) string {
	switch {
	case r.NextDue == nil:
		return "retired"
	case r.LastProcessed != nil && core.DateOf(r.LastProcessed.In(p.config.Location)).Equal(today):
		return "already processed today"
	case r.NextDue.After(today):
		return "not yet due"
	case r.StartDate.After(today):
		return "not started"
	case !core.IsDue(r, today):
		return "inactive"
	}
	return ""
}
