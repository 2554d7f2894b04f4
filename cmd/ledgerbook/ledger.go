package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/core"
	"ledgerbook/internal/transport"
)

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Read and write ledger rows",
	}
	cmd.AddCommand(newLedgerListCommand(opts))
	cmd.AddCommand(newLedgerAddCommand(opts))
	return cmd
}

func newLedgerListCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print ledger rows, newest last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, _ core.Date) error {
				entries, err := stack.Gateway.ListEntries(ctx)
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				return opts.printEntries(cmd, entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only the last n rows (0 for all)")
	return cmd
}

func (o *rootOptions) printEntries(cmd *cobra.Command, entries []core.LedgerEntry) error {
	if o.Format == "json" {
		rows := make([]transport.EntryWire, len(entries))
		for i, e := range entries {
			rows[i] = transport.EntryToWire(e)
		}
		return o.writeJSON(cmd.OutOrStdout(), rows)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	// Amounts are signed so expenses read as outflows.
	fmt.Fprintln(tw, "ROW\tDATE\tTYPE\tAMOUNT\tCATEGORY\tACCOUNT\tPAYEE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.RowIndex, e.Date, e.Kind, core.FormatAmount(e.Signed()), e.Category, e.Account, e.Payee)
	}
	return tw.Flush()
}

func newLedgerAddCommand(opts *rootOptions) *cobra.Command {
	var (
		date, kind, amount              string
		category, account, payee, notes string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a one-off ledger row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, today core.Date) error {
				e := core.LedgerEntry{
					Date:     today,
					Category: category,
					Account:  account,
					Payee:    payee,
					Notes:    notes,
				}
				if date != "" {
					d, err := core.ParseDate(date)
					if err != nil {
						return fmt.Errorf("date: %w", err)
					}
					e.Date = d
				}
				e.DayOfWeek = e.Date.Weekday().String()

				var err error
				if e.Kind, err = core.ParseKind(kind); err != nil {
					return err
				}
				if e.Amount, err = core.ParseAmount(amount); err != nil {
					return fmt.Errorf("amount: %w", err)
				}

				dispatch, err := stack.Gateway.AppendEntry(ctx, e)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Sent %s command %s\n", dispatch.Operation, dispatch.CommandID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "row date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&kind, "type", "expense", "expense or income")
	cmd.Flags().StringVar(&amount, "amount", "", "non-negative amount")
	cmd.Flags().StringVar(&category, "category", "", "ledger category")
	cmd.Flags().StringVar(&account, "account", "", "ledger account")
	cmd.Flags().StringVar(&payee, "payee", "", "who is paid or pays")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
