package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"
	"ledgerbook/internal/transport"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ports.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.queries.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rules := make([]core.RecurringRule, 0, len(rows))
	for _, row := range rows {
		rule, err := ruleFromRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable recurring rule", "rule_id", row.ID, "error", err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurringRule) (string, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := r.queries.CreateRule(ctx, ruleToRow(rule)); err != nil {
		return "", fmt.Errorf("create rule: %w", err)
	}
	slog.InfoContext(ctx, "Recurring rule saved to SQLite",
		"rule_id", rule.ID,
		"payee", rule.Payee,
		"frequency", rule.Frequency.String())
	return rule.ID, nil
}

// UpdateRule reads, merges and writes the rule inside one transaction.
func (r *SQLiteRepository) UpdateRule(ctx context.Context, id string, u core.RuleUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	row, err := q.GetRule(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get rule: %w", err)
	}
	current, err := ruleFromRow(row)
	if err != nil {
		return fmt.Errorf("decode rule %s: %w", id, err)
	}
	if _, err := q.UpdateRule(ctx, ruleToRow(current.Apply(u))); err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	n, err := r.queries.DeleteRule(ctx, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]core.LedgerEntry, 0, len(rows))
	for i, row := range rows {
		e, err := entryFromRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable ledger entry", "id", row.ID, "error", err)
			continue
		}
		e.RowIndex = i + ports.FirstDataRow
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.LedgerEntry) (int, error) {
	id, err := r.queries.CreateEntry(ctx, entryToRow(e))
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	n, err := r.queries.CountEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	row := int(n) - 1 + ports.FirstDataRow
	slog.InfoContext(ctx, "Ledger entry saved to SQLite", "id", id, "row_index", row, "payee", e.Payee)
	return row, nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, row int, e core.LedgerEntry) error {
	id, err := r.entryID(ctx, row)
	if err != nil {
		return err
	}
	dbRow := entryToRow(e)
	dbRow.ID = id
	if err := r.queries.UpdateEntry(ctx, dbRow); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, row int) error {
	id, err := r.entryID(ctx, row)
	if err != nil {
		return err
	}
	if err := r.queries.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) entryID(ctx context.Context, row int) (int64, error) {
	offset := row - ports.FirstDataRow
	if offset < 0 {
		return 0, fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	id, err := r.queries.EntryIDAtOffset(ctx, int64(offset))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve row %d: %w", row, err)
	}
	return id, nil
}

func ruleToRow(r core.RecurringRule) RecurringRuleRow {
	row := RecurringRuleRow{
		ID:        r.ID,
		Payee:     r.Payee,
		Category:  r.Category,
		Account:   r.Account,
		Notes:     r.Notes,
		Amount:    r.Amount.String(),
		Kind:      r.Kind.String(),
		Frequency: r.Frequency.String(),
		StartDate: r.StartDate.String(),
	}
	if r.EndDate != nil {
		row.EndDate = sql.NullString{String: r.EndDate.String(), Valid: true}
	}
	if r.NextDue != nil {
		row.NextDue = sql.NullString{String: r.NextDue.String(), Valid: true}
	}
	if r.LastProcessed != nil {
		row.LastProcessed = sql.NullString{String: r.LastProcessed.Format(time.RFC3339), Valid: true}
	}
	return row
}

func ruleFromRow(row RecurringRuleRow) (core.RecurringRule, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("amount %q: %w", row.Amount, core.ErrInvalidAmount)
	}
	w := transport.RuleWire{
		ID:        row.ID,
		Payee:     row.Payee,
		Category:  row.Category,
		Account:   row.Account,
		Notes:     row.Notes,
		Amount:    amount,
		Type:      row.Kind,
		Frequency: row.Frequency,
		StartDate: row.StartDate,
	}
	if row.EndDate.Valid {
		w.EndDate = &row.EndDate.String
	}
	if row.NextDue.Valid {
		w.NextDue = &row.NextDue.String
	}
	if row.LastProcessed.Valid {
		w.LastProcessed = &row.LastProcessed.String
	}
	return w.Rule()
}

func entryToRow(e core.LedgerEntry) LedgerEntryRow {
	return LedgerEntryRow{
		Date:      e.Date.String(),
		DayOfWeek: e.DayOfWeek,
		Kind:      e.Kind.String(),
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Account:   e.Account,
		Payee:     e.Payee,
		Notes:     e.Notes,
	}
}

func entryFromRow(row LedgerEntryRow) (core.LedgerEntry, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("amount %q: %w", row.Amount, core.ErrInvalidAmount)
	}
	return transport.EntryWire{
		Date:      row.Date,
		DayOfWeek: row.DayOfWeek,
		Type:      row.Kind,
		Amount:    amount,
		Category:  row.Category,
		Account:   row.Account,
		Payee:     row.Payee,
		Notes:     row.Notes,
	}.Entry()
}
