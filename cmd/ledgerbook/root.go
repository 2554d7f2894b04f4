package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/config"
	"ledgerbook/internal/core"
	"ledgerbook/internal/log"
)

// opener builds the backend stack and reports the calendar zone.
type opener func(ctx context.Context) (*backend.Stack, *time.Location, error)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Format string // "json" | "text"

	open opener
	now  func() time.Time
}

var validFormats = []string{"text", "json"}

func newRootCommand(open opener) *cobra.Command {
	opts := &rootOptions{open: open, now: time.Now}

	cmd := &cobra.Command{
		Use:   "ledgerbook",
		Short: "Recurring transactions for a spreadsheet ledger",
		Long: `Manage recurring rules and materialize the due ones into the ledger.

The backend, transport and cache are configured through the same environment
variables and .env file as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newProcessCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newDueCommand(opts))
	cmd.AddCommand(newRuleCommand(opts))
	cmd.AddCommand(newLedgerCommand(opts))

	return cmd
}

// withStack opens the stack for one command and always closes it.
func (o *rootOptions) withStack(cmd *cobra.Command, fn func(ctx context.Context, stack *backend.Stack, today core.Date) error) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	stack, loc, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	today := core.DateOf(o.now().In(loc))
	return fn(ctx, stack, today)
}

func (o *rootOptions) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openStack reads the process configuration and builds the stack. Logs go
// to stderr so command output stays clean.
func openStack(ctx context.Context) (*backend.Stack, *time.Location, error) {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.LogFormat
	logCfg.Component = log.ComponentCLI
	logCfg.Output = os.Stderr
	logger := log.New(logCfg)
	log.SetDefault(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	stack, err := backend.NewFactory(logger.Logger).Build(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	return stack, bcfg.Location, nil
}
