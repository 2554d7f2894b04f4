package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// RecurringRuleRow mirrors a recurring_rules row.
type RecurringRuleRow struct {
	ID            string
	Payee         string
	Category      string
	Account       string
	Notes         string
	Amount        string
	Kind          string
	Frequency     string
	StartDate     string
	EndDate       sql.NullString
	NextDue       sql.NullString
	LastProcessed sql.NullString
}

// LedgerEntryRow mirrors a ledger_entries row.
type LedgerEntryRow struct {
	ID        int64
	Date      string
	DayOfWeek string
	Kind      string
	Amount    string
	Category  string
	Account   string
	Payee     string
	Notes     string
}

const ruleColumns = `id, payee, category, account, notes, amount, kind, frequency, start_date, end_date, next_due, last_processed`

func scanRule(row interface{ Scan(...interface{}) error }) (RecurringRuleRow, error) {
	var r RecurringRuleRow
	err := row.Scan(&r.ID, &r.Payee, &r.Category, &r.Account, &r.Notes, &r.Amount,
		&r.Kind, &r.Frequency, &r.StartDate, &r.EndDate, &r.NextDue, &r.LastProcessed)
	return r, err
}

const listRules = `SELECT ` + ruleColumns + ` FROM recurring_rules ORDER BY seq`

func (q *Queries) ListRules(ctx context.Context) ([]RecurringRuleRow, error) {
	rows, err := q.db.QueryContext(ctx, listRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringRuleRow
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getRule = `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE id = ?`

func (q *Queries) GetRule(ctx context.Context, id string) (RecurringRuleRow, error) {
	return scanRule(q.db.QueryRowContext(ctx, getRule, id))
}

const createRule = `INSERT INTO recurring_rules (` + ruleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRule(ctx context.Context, r RecurringRuleRow) error {
	_, err := q.db.ExecContext(ctx, createRule, r.ID, r.Payee, r.Category, r.Account, r.Notes,
		r.Amount, r.Kind, r.Frequency, r.StartDate, r.EndDate, r.NextDue, r.LastProcessed)
	return err
}

const updateRule = `UPDATE recurring_rules SET
    payee = ?, category = ?, account = ?, notes = ?, amount = ?, kind = ?, frequency = ?,
    start_date = ?, end_date = ?, next_due = ?, last_processed = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) UpdateRule(ctx context.Context, r RecurringRuleRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRule, r.Payee, r.Category, r.Account, r.Notes,
		r.Amount, r.Kind, r.Frequency, r.StartDate, r.EndDate, r.NextDue, r.LastProcessed, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRule = `DELETE FROM recurring_rules WHERE id = ?`

func (q *Queries) DeleteRule(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRule, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listEntries = `SELECT id, date, day_of_week, kind, amount, category, account, payee, notes
FROM ledger_entries ORDER BY id`

func (q *Queries) ListEntries(ctx context.Context) ([]LedgerEntryRow, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntryRow
	for rows.Next() {
		var e LedgerEntryRow
		if err := rows.Scan(&e.ID, &e.Date, &e.DayOfWeek, &e.Kind, &e.Amount,
			&e.Category, &e.Account, &e.Payee, &e.Notes); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const entryIDAtOffset = `SELECT id FROM ledger_entries ORDER BY id LIMIT 1 OFFSET ?`

// EntryIDAtOffset resolves a positional row to its primary key.
func (q *Queries) EntryIDAtOffset(ctx context.Context, offset int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, entryIDAtOffset, offset).Scan(&id)
	return id, err
}

const countEntries = `SELECT COUNT(*) FROM ledger_entries`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEntries).Scan(&n)
	return n, err
}

const createEntry = `INSERT INTO ledger_entries (date, day_of_week, kind, amount, category, account, payee, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateEntry(ctx context.Context, e LedgerEntryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEntry, e.Date, e.DayOfWeek, e.Kind, e.Amount,
		e.Category, e.Account, e.Payee, e.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateEntry = `UPDATE ledger_entries SET
    date = ?, day_of_week = ?, kind = ?, amount = ?, category = ?, account = ?, payee = ?, notes = ?
WHERE id = ?`

func (q *Queries) UpdateEntry(ctx context.Context, e LedgerEntryRow) error {
	_, err := q.db.ExecContext(ctx, updateEntry, e.Date, e.DayOfWeek, e.Kind, e.Amount,
		e.Category, e.Account, e.Payee, e.Notes, e.ID)
	return err
}

const deleteEntry = `DELETE FROM ledger_entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteEntry, id)
	return err
}
