package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/core"
	"ledgerbook/internal/services"
	"ledgerbook/internal/transport"
)

type ruleRow struct {
	transport.RuleWire
	Status string `json:"status"`
}

type summaryRow struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Retired   int      `json:"retired"`
	Skipped   int      `json:"skipped"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func newProcessCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Materialize every due recurring rule now",
		Long: `Run one batch: each due rule is written to the ledger once and its
schedule advanced or retired. Exits non-zero when any rule failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, _ core.Date) error {
				summary := stack.Processor.RunManual(ctx)
				if err := opts.printSummary(cmd, summary); err != nil {
					return err
				}
				if n := len(summary.Errors); n > 0 {
					return fmt.Errorf("batch finished with %d failed rules", n)
				}
				return nil
			})
		},
	}
}

func (o *rootOptions) printSummary(cmd *cobra.Command, s services.Summary) error {
	if o.Format == "json" {
		row := summaryRow{
			Total:     s.Total,
			Processed: s.Processed,
			Retired:   s.Retired,
			Skipped:   s.Skipped,
			Cancelled: s.Cancelled,
		}
		for _, e := range s.Errors {
			row.Errors = append(row.Errors, e.Error())
		}
		return o.writeJSON(cmd.OutOrStdout(), row)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s.Message())
	return err
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List every recurring rule with its status today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, today core.Date) error {
				views, err := stack.Rules.List(ctx, today)
				if err != nil {
					return err
				}
				return opts.printRules(cmd, views)
			})
		},
	}
}

func newDueCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List the rules the next batch would materialize",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, today core.Date) error {
				views, err := stack.Rules.List(ctx, today)
				if err != nil {
					return err
				}
				due := views[:0]
				for _, v := range views {
					if core.IsDue(v.RecurringRule, today) {
						due = append(due, v)
					}
				}
				return opts.printRules(cmd, due)
			})
		},
	}
}

func (o *rootOptions) printRules(cmd *cobra.Command, views []services.RuleView) error {
	if o.Format == "json" {
		rows := make([]ruleRow, len(views))
		for i, v := range views {
			rows[i] = ruleRow{RuleWire: transport.RuleToWire(v.RecurringRule), Status: v.Status.String()}
		}
		return o.writeJSON(cmd.OutOrStdout(), rows)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPAYEE\tTYPE\tAMOUNT\tFREQUENCY\tNEXT DUE\tSTATUS")
	for _, v := range views {
		next := "-"
		if v.NextDue != nil {
			next = v.NextDue.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Payee, v.Kind, core.FormatAmount(v.Amount), v.Frequency, next, v.Status)
	}
	return tw.Flush()
}
