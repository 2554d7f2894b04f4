package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledgerbook/internal/core"
)

var ErrInvalidCommand = errors.New("invalid command")

// Command is a single write. Which fields are meaningful depends on the
// operation:
//
//	add              Entry
//	update           RowIndex, Entry
//	delete           RowIndex
//	addRecurring     Rule (with its id)
//	updateRecurring  RecurringID, Schedule and/or Rule
//	deleteRecurring  RecurringID
type Command struct {
	ID          string
	Operation   Operation
	RowIndex    int
	RecurringID string
	Entry       *core.LedgerEntry
	Rule        *core.RecurringRule
	Schedule    *core.ScheduleUpdate
}

func AddEntry(e core.LedgerEntry) Command {
	return Command{Operation: OpAdd, Entry: &e}
}

func UpdateEntry(row int, e core.LedgerEntry) Command {
	return Command{Operation: OpUpdate, RowIndex: row, Entry: &e}
}

func DeleteEntry(row int) Command {
	return Command{Operation: OpDelete, RowIndex: row}
}

func AddRule(r core.RecurringRule) Command {
	return Command{Operation: OpAddRecurring, RecurringID: r.ID, Rule: &r}
}

// UpdateRule builds an updateRecurring command from a partial update.
func UpdateRule(id string, u core.RuleUpdate) Command {
	return Command{Operation: OpUpdateRecurring, RecurringID: id, Rule: u.Details, Schedule: u.Schedule}
}

func DeleteRule(id string) Command {
	return Command{Operation: OpDeleteRecurring, RecurringID: id}
}

// RuleUpdate returns the partial update carried by an updateRecurring command.
func (c Command) RuleUpdate() core.RuleUpdate {
	return core.RuleUpdate{Schedule: c.Schedule, Details: c.Rule}
}

func (c Command) Validate() error {
	switch c.Operation {
	case OpAdd:
		if c.Entry == nil {
			return fmt.Errorf("%w: %s without transaction", ErrInvalidCommand, c.Operation)
		}
	case OpUpdate:
		if c.Entry == nil || c.RowIndex <= 0 {
			return fmt.Errorf("%w: %s needs rowIndex and transaction", ErrInvalidCommand, c.Operation)
		}
	case OpDelete:
		if c.RowIndex <= 0 {
			return fmt.Errorf("%w: %s needs rowIndex", ErrInvalidCommand, c.Operation)
		}
	case OpAddRecurring:
		if c.Rule == nil || strings.TrimSpace(c.RecurringID) == "" {
			return fmt.Errorf("%w: %s needs recurringId and recurring", ErrInvalidCommand, c.Operation)
		}
	case OpUpdateRecurring:
		if strings.TrimSpace(c.RecurringID) == "" {
			return fmt.Errorf("%w: %s needs recurringId", ErrInvalidCommand, c.Operation)
		}
		if c.Rule == nil && c.Schedule == nil {
			return fmt.Errorf("%w: %s carries no fields", ErrInvalidCommand, c.Operation)
		}
	case OpDeleteRecurring:
		if strings.TrimSpace(c.RecurringID) == "" {
			return fmt.Errorf("%w: %s needs recurringId", ErrInvalidCommand, c.Operation)
		}
	default:
		return fmt.Errorf("%w: unknown operation", ErrInvalidCommand)
	}
	return nil
}

type commandWire struct {
	CommandID     string         `json:"commandId,omitempty"`
	Operation     Operation      `json:"operation"`
	RowIndex      int            `json:"rowIndex,omitempty"`
	RecurringID   string         `json:"recurringId,omitempty"`
	Transaction   *EntryWire     `json:"transaction,omitempty"`
	Recurring     *recurringWire `json:"recurring,omitempty"`
	LastProcessed string         `json:"lastProcessed,omitempty"`
}

// recurringWire shadows the rule's schedule fields so a details-only edit
// leaves them out instead of sending nulls.
type recurringWire struct {
	RuleWire
	NextDue       *string `json:"nextDue,omitempty"`
	LastProcessed *string `json:"lastProcessed,omitempty"`
}

func (w recurringWire) rule() RuleWire {
	r := w.RuleWire
	r.NextDue = w.NextDue
	r.LastProcessed = w.LastProcessed
	return r
}

// MarshalJSON writes nextDue only for schedule updates, as an explicit null
// when the update retires the rule.
func (c Command) MarshalJSON() ([]byte, error) {
	w := commandWire{
		CommandID:   c.ID,
		Operation:   c.Operation,
		RowIndex:    c.RowIndex,
		RecurringID: c.RecurringID,
	}
	if c.Entry != nil {
		e := EntryToWire(*c.Entry)
		w.Transaction = &e
	}
	if c.Rule != nil {
		w.Recurring = &recurringWire{RuleWire: RuleToWire(*c.Rule)}
		if c.Operation != OpUpdateRecurring {
			w.Recurring.NextDue = w.Recurring.RuleWire.NextDue
			w.Recurring.LastProcessed = w.Recurring.RuleWire.LastProcessed
		}
	}
	if c.Schedule == nil {
		return json.Marshal(w)
	}

	if !c.Schedule.LastProcessed.IsZero() {
		w.LastProcessed = c.Schedule.LastProcessed.Format(time.RFC3339)
	}
	return json.Marshal(struct {
		commandWire
		NextDue *string `json:"nextDue"`
	}{w, dateString(c.Schedule.NextDue)})
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var w commandWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}

	out := Command{
		ID:          w.CommandID,
		Operation:   w.Operation,
		RowIndex:    w.RowIndex,
		RecurringID: w.RecurringID,
	}
	if w.Transaction != nil {
		e, err := w.Transaction.Entry()
		if err != nil {
			return err
		}
		e.RowIndex = w.RowIndex
		out.Entry = &e
	}
	if w.Recurring != nil {
		rw := w.Recurring.rule()
		if rw.ID == "" {
			rw.ID = w.RecurringID
		}
		r, err := rw.Rule()
		if err != nil {
			return err
		}
		out.Rule = &r
	}
	if raw, ok := keys["nextDue"]; ok {
		var next *string
		if err := json.Unmarshal(raw, &next); err != nil {
			return fmt.Errorf("nextDue: %w", err)
		}
		d, err := parseOptionalDate(next)
		if err != nil {
			return fmt.Errorf("nextDue: %w", err)
		}
		s := &core.ScheduleUpdate{NextDue: d}
		if w.LastProcessed != "" {
			if s.LastProcessed, err = ParseTimestamp(w.LastProcessed); err != nil {
				return fmt.Errorf("lastProcessed: %w", err)
			}
		}
		out.Schedule = s
	}
	*c = out
	return nil
}
