// Package gateway is the single entry point to the rule and ledger datasets.
// Reads go through the cache, writes go out as fire-and-forget commands.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"ledgerbook/internal/cache"
	"ledgerbook/internal/core"
	"ledgerbook/internal/transport"
)

type Gateway struct {
	querier   transport.Querier
	commander transport.Commander
	cache     *cache.Coordinator
	group     singleflight.Group

	mu       sync.Mutex
	lastGood map[cache.Dataset][]byte
}

func New(q transport.Querier, c transport.Commander, coord *cache.Coordinator) *Gateway {
	return &Gateway{
		querier:   q,
		commander: c,
		cache:     coord,
		lastGood:  map[cache.Dataset][]byte{},
	}
}

// ListRules returns every rule, cached or fresh. When the backend cannot be
// reached it answers with the last payload it fetched successfully.
func (g *Gateway) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	return read(ctx, g, cache.RecurringTransactions, transport.GetRecurringTransactions, transport.DecodeRules)
}

// ListEntries is ListRules for the ledger.
func (g *Gateway) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	return read(ctx, g, cache.Transactions, transport.GetTransactions, transport.DecodeEntries)
}

// FetchRule reads the current state of one rule straight from the backend,
// bypassing the cache and the last-good fallback.
func (g *Gateway) FetchRule(ctx context.Context, id string) (core.RecurringRule, bool, error) {
	body, err := g.querier.Query(ctx, transport.GetRecurringTransactions)
	if err != nil {
		return core.RecurringRule{}, false, err
	}
	rules, err := transport.DecodeRules(body)
	if err != nil {
		return core.RecurringRule{}, false, err
	}
	g.remember(ctx, cache.RecurringTransactions, body)
	for _, r := range rules {
		if r.ID == id {
			return r, true, nil
		}
	}
	return core.RecurringRule{}, false, nil
}

// CreateRule assigns an id when the rule has none and dispatches it.
func (g *Gateway) CreateRule(ctx context.Context, r core.RecurringRule) (string, transport.Dispatch, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	d, err := g.send(ctx, cache.RecurringTransactions, transport.AddRule(r))
	if err != nil {
		return "", d, err
	}
	return r.ID, d, nil
}

func (g *Gateway) UpdateRule(ctx context.Context, id string, u core.RuleUpdate) (transport.Dispatch, error) {
	return g.send(ctx, cache.RecurringTransactions, transport.UpdateRule(id, u))
}

func (g *Gateway) DeleteRule(ctx context.Context, id string) (transport.Dispatch, error) {
	return g.send(ctx, cache.RecurringTransactions, transport.DeleteRule(id))
}

func (g *Gateway) AppendEntry(ctx context.Context, e core.LedgerEntry) (transport.Dispatch, error) {
	return g.send(ctx, cache.Transactions, transport.AddEntry(e))
}

func (g *Gateway) UpdateEntry(ctx context.Context, row int, e core.LedgerEntry) (transport.Dispatch, error) {
	return g.send(ctx, cache.Transactions, transport.UpdateEntry(row, e))
}

func (g *Gateway) DeleteEntry(ctx context.Context, row int) (transport.Dispatch, error) {
	return g.send(ctx, cache.Transactions, transport.DeleteEntry(row))
}

// WarmLedger reloads both datasets into the cache.
func (g *Gateway) WarmLedger(ctx context.Context) {
	entries, err := g.ListEntries(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Ledger reload failed", "error", err)
		return
	}
	rules, err := g.ListRules(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Recurring rules reload failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Datasets reloaded", "entries", len(entries), "rules", len(rules))
}

func (g *Gateway) send(ctx context.Context, d cache.Dataset, cmd transport.Command) (transport.Dispatch, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	dispatch, err := g.commander.Send(ctx, cmd)
	// A failed send may still have reached the backend.
	g.cache.Invalidate(ctx, d)
	if err != nil {
		return transport.Dispatch{}, fmt.Errorf("%s: %w", cmd.Operation, err)
	}
	return dispatch, nil
}

func (g *Gateway) remember(ctx context.Context, d cache.Dataset, body []byte) {
	g.cache.Save(ctx, d, body)
	g.mu.Lock()
	g.lastGood[d] = body
	g.mu.Unlock()
}

func (g *Gateway) fallback(d cache.Dataset) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.lastGood[d]
	return b, ok
}

func read[T any](ctx context.Context, g *Gateway, d cache.Dataset, action transport.Action, decode func([]byte) (T, error)) (T, error) {
	if body, ok := g.cache.Load(ctx, d); ok {
		if v, err := decode(body); err == nil {
			return v, nil
		}
		g.cache.Invalidate(ctx, d)
	}

	v, err, shared := g.group.Do(string(d), func() (any, error) {
		body, err := g.querier.Query(ctx, action)
		if err == nil {
			var v T
			if v, err = decode(body); err == nil {
				g.remember(ctx, d, body)
				return v, nil
			}
		}
		if last, ok := g.fallback(d); ok {
			slog.WarnContext(ctx, "Backend read failed, serving last good payload",
				"dataset", string(d), "error", err)
			return decode(last)
		}
		return nil, err
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read %s: %w", d, err)
	}
	if shared {
		slog.DebugContext(ctx, "Coalesced backend read", "dataset", string(d))
	}
	return v.(T), nil
}
