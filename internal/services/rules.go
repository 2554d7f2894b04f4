package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledgerbook/internal/core"
	"ledgerbook/internal/transport"
)

var ErrRuleNotFound = errors.New("recurring rule not found")

// RuleGateway is what the rule lifecycle needs from the gateway.
type RuleGateway interface {
	ListRules(ctx context.Context) ([]core.RecurringRule, error)
	FetchRule(ctx context.Context, id string) (core.RecurringRule, bool, error)
	CreateRule(ctx context.Context, r core.RecurringRule) (string, transport.Dispatch, error)
	UpdateRule(ctx context.Context, id string, u core.RuleUpdate) (transport.Dispatch, error)
	DeleteRule(ctx context.Context, id string) (transport.Dispatch, error)
}

// RuleView pairs a rule with its status on a given day.
type RuleView struct {
	core.RecurringRule
	Status core.Status
}

// RuleService creates, edits and deletes recurring rules while keeping
// nextDue inside the rule's window.
type RuleService struct {
	gw RuleGateway
}

func NewRuleService(gw RuleGateway) *RuleService {
	return &RuleService{gw: gw}
}

// Create validates r, seeds nextDue with the start date and dispatches it.
func (s *RuleService) Create(ctx context.Context, r core.RecurringRule) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("create recurring rule: %w", err)
	}
	r.NextDue = core.DatePtr(r.StartDate)
	r.LastProcessed = nil

	id, _, err := s.gw.CreateRule(ctx, r)
	if err != nil {
		return "", fmt.Errorf("create recurring rule: %w", err)
	}
	slog.InfoContext(ctx, "Recurring rule created",
		"rule_id", id,
		"payee", r.Payee,
		"frequency", r.Frequency.String(),
		"next_due", r.NextDue.String())
	return id, nil
}

// Edit replaces the descriptive fields and window of rule id. The schedule is
// only touched when the new window no longer contains the current nextDue.
func (s *RuleService) Edit(ctx context.Context, id string, details core.RecurringRule) error {
	details.ID = id
	if err := details.Validate(); err != nil {
		return fmt.Errorf("edit recurring rule %s: %w", id, err)
	}

	current, found, err := s.gw.FetchRule(ctx, id)
	if err != nil {
		return fmt.Errorf("edit recurring rule %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("edit recurring rule %s: %w", id, ErrRuleNotFound)
	}

	update := core.RuleUpdate{Details: &details}
	if sched := reseat(current, details); sched != nil {
		update.Schedule = sched
	}
	if _, err := s.gw.UpdateRule(ctx, id, update); err != nil {
		return fmt.Errorf("edit recurring rule %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Recurring rule updated", "rule_id", id, "rescheduled", update.Schedule != nil)
	return nil
}

// reseat returns the schedule write needed to keep nextDue inside the new
// window, or nil when the current nextDue still fits. Retired rules stay
// retired.
func reseat(current, details core.RecurringRule) *core.ScheduleUpdate {
	if current.NextDue == nil {
		return nil
	}
	next := *current.NextDue
	if details.StartDate.After(next) {
		next = details.StartDate
	}
	if details.EndDate != nil && next.After(*details.EndDate) {
		last, ok := core.LastOccurrenceOnOrBefore(details.StartDate, details.Frequency, *details.EndDate)
		switch {
		case !ok:
			return &core.ScheduleUpdate{}
		case current.LastProcessed != nil && !core.DateOf(*current.LastProcessed).Before(last):
			return &core.ScheduleUpdate{}
		}
		next = last
	}
	if next.Equal(*current.NextDue) {
		return nil
	}
	return &core.ScheduleUpdate{NextDue: core.DatePtr(next)}
}

// Delete removes rule id. A rule missing from a fresh read is reported as
// ErrRuleNotFound rather than sent.
func (s *RuleService) Delete(ctx context.Context, id string) error {
	if _, found, err := s.gw.FetchRule(ctx, id); err != nil {
		return fmt.Errorf("delete recurring rule %s: %w", id, err)
	} else if !found {
		return fmt.Errorf("delete recurring rule %s: %w", id, ErrRuleNotFound)
	}
	if _, err := s.gw.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete recurring rule %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Recurring rule deleted", "rule_id", id)
	return nil
}

// List returns every rule in id order with its status on today.
func (s *RuleService) List(ctx context.Context, today core.Date) ([]RuleView, error) {
	rules, err := s.gw.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	core.SortByID(rules)
	views := make([]RuleView, len(rules))
	for i, r := range rules {
		views[i] = RuleView{RecurringRule: r, Status: core.Classify(r, today)}
	}
	return views, nil
}
