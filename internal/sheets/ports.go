package sheets

import (
	"context"
	"errors"

	"ledgerbook/internal/core"
)

// ErrNotFound is returned when a rule id or ledger row does not exist.
var ErrNotFound = errors.New("not found")

// FirstDataRow is the row index of the first ledger entry; row 1 holds the
// header in every store.
const FirstDataRow = 2

// Ports for outbound adapters.
type (
	RuleRepository interface {
		ListRules(ctx context.Context) ([]core.RecurringRule, error)
		// CreateRule stores the rule under its id, generating one when empty.
		CreateRule(ctx context.Context, r core.RecurringRule) (id string, err error)
		UpdateRule(ctx context.Context, id string, u core.RuleUpdate) error
		DeleteRule(ctx context.Context, id string) error
	}

	LedgerRepository interface {
		ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
		// AppendEntry stores e after the last row and returns its row index.
		AppendEntry(ctx context.Context, e core.LedgerEntry) (row int, err error)
		UpdateEntry(ctx context.Context, row int, e core.LedgerEntry) error
		DeleteEntry(ctx context.Context, row int) error
	}

	// Repository is a store holding both datasets.
	Repository interface {
		RuleRepository
		LedgerRepository
	}
)
