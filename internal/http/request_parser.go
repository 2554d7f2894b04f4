// Package http serves the recurring-rule and ledger API.
//
// This file implements utilities for parsing and validating request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ledgerbook/internal/core"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

// RuleRequest is the JSON body for creating or editing a recurring rule.
type RuleRequest struct {
	Payee     string `json:"payee"`
	Category  string `json:"category"`
	Account   string `json:"account"`
	Notes     string `json:"notes"`
	Amount    string `json:"amount"`
	Type      string `json:"type"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Rule converts the request into a rule. Field errors wrap the core
// validation errors so handlers can answer 422.
func (req RuleRequest) Rule() (core.RecurringRule, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.RecurringRule{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.RecurringRule{}, err
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("startDate: %w", err)
	}
	r := core.RecurringRule{
		Payee:     sanitizeInput(req.Payee),
		Category:  sanitizeInput(req.Category),
		Account:   sanitizeInput(req.Account),
		Notes:     sanitizeInput(req.Notes),
		Amount:    amount,
		Kind:      kind,
		Frequency: freq,
		StartDate: start,
	}
	if strings.TrimSpace(req.EndDate) != "" {
		end, err := core.ParseDate(req.EndDate)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("endDate: %w", err)
		}
		r.EndDate = &end
	}
	return r, r.Validate()
}

// EntryRequest is the JSON body for writing a ledger entry.
type EntryRequest struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Account  string `json:"account"`
	Payee    string `json:"payee"`
	Notes    string `json:"notes"`
}

func (req EntryRequest) Entry() (core.LedgerEntry, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("date: %w", err)
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	category := sanitizeInput(req.Category)
	if category == "" {
		return core.LedgerEntry{}, core.ErrEmptyCategory
	}
	return core.LedgerEntry{
		Date:      date,
		DayOfWeek: date.Weekday().String(),
		Kind:      kind,
		Amount:    amount,
		Category:  category,
		Account:   sanitizeInput(req.Account),
		Payee:     sanitizeInput(req.Payee),
		Notes:     sanitizeInput(req.Notes),
	}, nil
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// parseRow reads the {row} path value as a ledger row index.
func parseRow(r *http.Request) (int, error) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil || row < 2 {
		return 0, fmt.Errorf("%w: invalid row %q", errBadBody, r.PathValue("row"))
	}
	return row, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
