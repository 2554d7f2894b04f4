package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/core"
	"ledgerbook/internal/services"
)

func frequencyHelp() string {
	names := make([]string, 0, len(core.Frequencies()))
	for _, f := range core.Frequencies() {
		names = append(names, f.String())
	}
	return strings.Join(names, "|")
}

// ruleFlags holds the editable fields of a recurring rule.
type ruleFlags struct {
	Payee     string
	Category  string
	Account   string
	Notes     string
	Amount    string
	Kind      string
	Frequency string
	Start     string
	End       string
	NoEnd     bool
}

func (f *ruleFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Payee, "payee", "", "who is paid or pays")
	fs.StringVar(&f.Category, "category", "", "ledger category")
	fs.StringVar(&f.Account, "account", "", "ledger account")
	fs.StringVar(&f.Notes, "notes", "", "free-form notes")
	fs.StringVar(&f.Amount, "amount", "", "non-negative amount, e.g. 12.50")
	fs.StringVar(&f.Kind, "type", "expense", "expense or income")
	fs.StringVar(&f.Frequency, "frequency", "monthly", frequencyHelp())
	fs.StringVar(&f.Start, "start", "", "first occurrence (YYYY-MM-DD)")
	fs.StringVar(&f.End, "end", "", "last allowed occurrence (YYYY-MM-DD)")
	fs.BoolVar(&f.NoEnd, "no-end", false, "remove the end date")
}

// apply overlays the flags set on the command line onto r.
func (f *ruleFlags) apply(fs *pflag.FlagSet, r core.RecurringRule) (core.RecurringRule, error) {
	if fs.Changed("payee") {
		r.Payee = f.Payee
	}
	if fs.Changed("category") {
		r.Category = f.Category
	}
	if fs.Changed("account") {
		r.Account = f.Account
	}
	if fs.Changed("notes") {
		r.Notes = f.Notes
	}
	if fs.Changed("amount") {
		amount, err := core.ParseAmount(f.Amount)
		if err != nil {
			return r, fmt.Errorf("amount: %w", err)
		}
		r.Amount = amount
	}
	if fs.Changed("type") || r.Kind == core.KindUnknown {
		kind, err := core.ParseKind(f.Kind)
		if err != nil {
			return r, err
		}
		r.Kind = kind
	}
	if fs.Changed("frequency") || r.Frequency == core.FrequencyUnknown {
		freq, err := core.ParseFrequency(f.Frequency)
		if err != nil {
			return r, err
		}
		r.Frequency = freq
	}
	if fs.Changed("start") {
		start, err := core.ParseDate(f.Start)
		if err != nil {
			return r, fmt.Errorf("start: %w", err)
		}
		r.StartDate = start
	}
	switch {
	case f.NoEnd:
		r.EndDate = nil
	case fs.Changed("end"):
		end, err := core.ParseDate(f.End)
		if err != nil {
			return r, fmt.Errorf("end: %w", err)
		}
		r.EndDate = &end
	}
	return r, nil
}

func newRuleCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Create, edit or delete recurring rules",
	}
	cmd.AddCommand(newRuleAddCommand(opts))
	cmd.AddCommand(newRuleEditCommand(opts))
	cmd.AddCommand(newRuleDeleteCommand(opts))
	return cmd
}

func newRuleAddCommand(opts *rootOptions) *cobra.Command {
	flags := &ruleFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring rule",
		Example: `  ledgerbook rule add --payee Landlord --category Rent --amount 950 --start 2026-01-01
  ledgerbook rule add --payee Gym --category Health --amount 39.90 --frequency monthly --start 2026-02-15 --end 2026-12-15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := flags.apply(cmd.Flags(), core.RecurringRule{})
			if err != nil {
				return err
			}
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, _ core.Date) error {
				id, err := stack.Rules.Create(ctx, r)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created recurring rule %s\n", id)
				return err
			})
		},
	}
	flags.register(cmd.Flags())
	for _, name := range []string{"payee", "category", "amount", "start"} {
		_ = cmd.MarkFlagRequired(name)
	}
	cmd.MarkFlagsMutuallyExclusive("end", "no-end")
	return cmd
}

func newRuleEditCommand(opts *rootOptions) *cobra.Command {
	flags := &ruleFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields of a recurring rule",
		Long: `Change the fields of a recurring rule. Flags left out keep their
current values; the schedule is moved to fit a new start or end date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, _ core.Date) error {
				current, ok, err := stack.Gateway.FetchRule(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", services.ErrRuleNotFound, id)
				}
				details, err := flags.apply(cmd.Flags(), current)
				if err != nil {
					return err
				}
				if err := stack.Rules.Edit(ctx, id, details); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated recurring rule %s\n", id)
				return err
			})
		},
	}
	flags.register(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("end", "no-end")
	return cmd
}

func newRuleDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recurring rule",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *backend.Stack, _ core.Date) error {
				if err := stack.Rules.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted recurring rule %s\n", args[0])
				return err
			})
		},
	}
}
