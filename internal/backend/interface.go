package backend

import (
	"context"
	"errors"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/cache"
	"ledgerbook/internal/gateway"
	"ledgerbook/internal/services"
	"ledgerbook/internal/sheets"
	"ledgerbook/internal/transport"
	"ledgerbook/internal/transport/local"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Stack is everything a binary needs to read, write and process the two
// datasets. Store and Local are nil when the spreadsheet is reached through
// the web app; Broker is set only when commands are queued.
type Stack struct {
	Store     sheets.Repository
	Local     *local.Transport
	Querier   transport.Querier
	Commander transport.Commander
	Broker    *amqp.Client

	Cache     *cache.Coordinator
	Gateway   *gateway.Gateway
	Guard     *services.Guard
	Processor *services.Processor
	Rules     *services.RuleService

	cleanups []CleanupFunc
}

func (s *Stack) onClose(fn CleanupFunc) {
	s.cleanups = append(s.cleanups, fn)
}

// Close releases resources in reverse order of acquisition.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	return errors.Join(errs...)
}

// Factory creates stacks based on configuration
type Factory interface {
	Build(ctx context.Context, cfg Config) (*Stack, error)
}
