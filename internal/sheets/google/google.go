package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"ledgerbook/internal/core"
	ports "ledgerbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options locate the spreadsheet and the credentials used to reach it.
type Options struct {
	SpreadsheetID      string
	RulesSheet         string
	LedgerSheet        string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	rulesSheet    string
	ledgerSheet   string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Ensure interface conformance
var _ ports.Repository = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Sheet names default to "Recurring" and "Transactions".
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWithService(svc, opts), nil
}

func newWithService(svc *gsheet.Service, opts Options) *Client {
	rules := strings.TrimSpace(opts.RulesSheet)
	if rules == "" {
		rules = "Recurring"
	}
	ledger := strings.TrimSpace(opts.LedgerSheet)
	if ledger == "" {
		ledger = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		rulesSheet:    rules,
		ledgerSheet:   ledger,
		sheetIDs:      map[string]int64{},
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither option is set.
func newSheetsService(ctx context.Context, opts Options, extra ...goption.ClientOption) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	clientOpts := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, extra...)
	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	return nil
}

func (c *Client) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A2:%s", c.rulesSheet, ruleLastCol)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rules := make([]core.RecurringRule, 0, len(resp.Values))
	for i, row := range resp.Values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		r, err := parseRuleRow(cols)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable recurring rule row", "row", i+ports.FirstDataRow, "error", err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (c *Client) CreateRule(ctx context.Context, r core.RecurringRule) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(r.ID) == "" {
		return "", errors.New("sheets store needs a rule id")
	}
	row, err := c.nextRow(ctx, c.rulesSheet)
	if err != nil {
		return "", err
	}
	if err := c.writeRow(ctx, c.rulesSheet, ruleLastCol, row, ruleRow(r)); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Recurring rule written to sheet", "rule_id", r.ID, "row", row)
	return r.ID, nil
}

func (c *Client) UpdateRule(ctx context.Context, id string, u core.RuleUpdate) error {
	if err := c.ready(); err != nil {
		return err
	}
	row, cols, err := c.findRule(ctx, id)
	if err != nil {
		return err
	}
	current, err := parseRuleRow(cols)
	if err != nil {
		return fmt.Errorf("decode rule %s: %w", id, err)
	}
	return c.writeRow(ctx, c.rulesSheet, ruleLastCol, row, ruleRow(current.Apply(u)))
}

func (c *Client) DeleteRule(ctx context.Context, id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	row, _, err := c.findRule(ctx, id)
	if err != nil {
		return err
	}
	return c.deleteRow(ctx, c.rulesSheet, row)
}

// findRule returns the sheet row holding id together with its cells.
func (c *Client) findRule(ctx context.Context, id string) (int, []string, error) {
	rng := fmt.Sprintf("%s!A2:%s", c.rulesSheet, ruleLastCol)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		cols := toStrings(row)
		if safeGet(cols, colRuleID) == id {
			return i + ports.FirstDataRow, cols, nil
		}
	}
	return 0, nil, fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
}

func (c *Client) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A2:%s", c.ledgerSheet, entryLastCol)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	entries := make([]core.LedgerEntry, 0, len(resp.Values))
	for i, row := range resp.Values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		e, err := parseEntryRow(cols)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable ledger row", "row", i+ports.FirstDataRow, "error", err)
			continue
		}
		e.RowIndex = i + ports.FirstDataRow
		entries = append(entries, e)
	}
	return entries, nil
}

// AppendEntry writes e on the first row after the used range of column A.
func (c *Client) AppendEntry(ctx context.Context, e core.LedgerEntry) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	row, err := c.nextRow(ctx, c.ledgerSheet)
	if err != nil {
		return 0, err
	}
	if err := c.writeRow(ctx, c.ledgerSheet, entryLastCol, row, entryRow(e)); err != nil {
		return 0, err
	}
	return row, nil
}

func (c *Client) UpdateEntry(ctx context.Context, row int, e core.LedgerEntry) error {
	if err := c.ready(); err != nil {
		return err
	}
	if row < ports.FirstDataRow {
		return fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	return c.writeRow(ctx, c.ledgerSheet, entryLastCol, row, entryRow(e))
}

func (c *Client) DeleteEntry(ctx context.Context, row int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if row < ports.FirstDataRow {
		return fmt.Errorf("row %d: %w", row, ports.ErrNotFound)
	}
	return c.deleteRow(ctx, c.ledgerSheet, row)
}

func (c *Client) nextRow(ctx context.Context, sheet string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	next := len(resp.Values) + 1
	if next < ports.FirstDataRow {
		next = ports.FirstDataRow
	}
	return next, nil
}

func (c *Client) writeRow(ctx context.Context, sheet, lastCol string, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastCol, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) deleteRow(ctx context.Context, sheet string, row int) error {
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// sheetID resolves a tab title to its numeric id, caching the answer.
func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok = c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}
