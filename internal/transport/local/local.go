// Package local serves queries and applies commands against repositories in
// the same process.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ports "ledgerbook/internal/sheets"
	"ledgerbook/internal/transport"
)

type Transport struct {
	rules  ports.RuleRepository
	ledger ports.LedgerRepository
	now    func() time.Time
}

var (
	_ transport.Querier   = (*Transport)(nil)
	_ transport.Commander = (*Transport)(nil)
)

func New(rules ports.RuleRepository, ledger ports.LedgerRepository) *Transport {
	return &Transport{rules: rules, ledger: ledger, now: time.Now}
}

// Query encodes the current repository contents in the wire format.
// Repository failures wrap transport.ErrTransport like network failures would.
func (t *Transport) Query(ctx context.Context, action transport.Action) ([]byte, error) {
	switch action {
	case transport.GetRecurringTransactions:
		rules, err := t.rules.ListRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list rules: %v", transport.ErrTransport, err)
		}
		return transport.EncodeRules(rules)
	case transport.GetTransactions:
		entries, err := t.ledger.ListEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list entries: %v", transport.ErrTransport, err)
		}
		return transport.EncodeEntries(entries)
	default:
		return nil, fmt.Errorf("%w: unsupported action %s", transport.ErrTransport, action)
	}
}

// Send applies the command synchronously.
func (t *Transport) Send(ctx context.Context, cmd transport.Command) (transport.Dispatch, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if err := t.Apply(ctx, cmd); err != nil {
		return transport.Dispatch{}, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return transport.Dispatch{CommandID: cmd.ID, Operation: cmd.Operation, SentAt: t.now()}, nil
}

// Apply executes a command against the repositories. Queue consumers call it
// directly so they can tell invalid commands from store failures.
func (t *Transport) Apply(ctx context.Context, cmd transport.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var err error
	switch cmd.Operation {
	case transport.OpAdd:
		var row int
		row, err = t.ledger.AppendEntry(ctx, *cmd.Entry)
		if err == nil {
			slog.DebugContext(ctx, "Ledger row appended", "row_index", row)
		}
	case transport.OpUpdate:
		err = t.ledger.UpdateEntry(ctx, cmd.RowIndex, *cmd.Entry)
	case transport.OpDelete:
		err = t.ledger.DeleteEntry(ctx, cmd.RowIndex)
	case transport.OpAddRecurring:
		r := *cmd.Rule
		r.ID = cmd.RecurringID
		_, err = t.rules.CreateRule(ctx, r)
	case transport.OpUpdateRecurring:
		err = t.rules.UpdateRule(ctx, cmd.RecurringID, cmd.RuleUpdate())
	case transport.OpDeleteRecurring:
		err = t.rules.DeleteRule(ctx, cmd.RecurringID)
	}
	if err != nil {
		return fmt.Errorf("apply %s: %w", cmd.Operation, err)
	}

	slog.InfoContext(ctx, "Command applied",
		"operation", cmd.Operation.String(),
		"command_id", cmd.ID,
		"rule_id", cmd.RecurringID,
		"row_index", cmd.RowIndex)
	return nil
}
