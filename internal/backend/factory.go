package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/cache"
	"ledgerbook/internal/gateway"
	"ledgerbook/internal/services"
	"ledgerbook/internal/sheets"
	"ledgerbook/internal/sheets/google"
	"ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/storage"
	"ledgerbook/internal/transport/local"
	"ledgerbook/internal/transport/webapp"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// Build wires repository, transports, cache, gateway and services. On error
// everything acquired so far is released.
func (f *DefaultFactory) Build(ctx context.Context, config Config) (*Stack, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stack := &Stack{}
	built := false
	defer func() {
		if !built {
			_ = stack.Close()
		}
	}()

	if err := f.wireTransport(ctx, stack, config); err != nil {
		return nil, err
	}

	store, err := f.createCache(ctx, stack, config)
	if err != nil {
		return nil, err
	}
	stack.Cache = cache.NewCoordinator(store, config.CachePrefix)
	stack.Gateway = gateway.New(stack.Querier, stack.Commander, stack.Cache)

	stack.Guard = services.NewGuard()
	stack.Processor = services.NewProcessor(stack.Gateway, stack.Gateway, stack.Cache, stack.Guard, services.ProcessorConfig{
		ReloadDelay: config.ReloadDelay,
		Location:    config.Location,
	})
	stack.Processor.OnReload(stack.Gateway.WarmLedger)
	// Registered last so a pending warm-up is cancelled before the stores close.
	stack.onClose(func() error {
		stack.Processor.Stop()
		return nil
	})
	stack.Rules = services.NewRuleService(stack.Gateway)

	f.logger.InfoContext(ctx, "Backend ready",
		"backend", config.Type,
		"queued_writes", config.QueueWrites,
		"redis_cache", config.Redis)
	built = true
	return stack, nil
}

func (f *DefaultFactory) wireTransport(ctx context.Context, stack *Stack, config Config) error {
	if config.Type == WebAppBackend {
		client, err := webapp.New(config.WebAppURL, config.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to initialize web app client: %w", err)
		}
		stack.Querier, stack.Commander = client, client
		return nil
	}

	repo, err := f.CreateRepository(ctx, stack, config)
	if err != nil {
		return err
	}
	stack.Store = repo
	stack.Local = local.New(repo, repo)
	stack.Querier, stack.Commander = stack.Local, stack.Local

	if config.QueueWrites {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		stack.onClose(client.Close)
		stack.Broker = client
		stack.Commander = client
	}
	return nil
}

// CreateRepository opens the store named by config.Type and registers its
// cleanup on stack.
func (f *DefaultFactory) CreateRepository(ctx context.Context, stack *Stack, config Config) (sheets.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		stack.onClose(repo.Close)
		f.logger.InfoContext(ctx, "SQLite repository opened", "path", config.SQLiteDBPath)
		return repo, nil

	case SheetsBackend:
		client, err := google.New(ctx, google.Options{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			RulesSheet:         config.GoogleRulesSheet,
			LedgerSheet:        config.GoogleLedgerSheet,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Google Sheets repository ready", "spreadsheet_id", config.GoogleSpreadsheetID)
		return client, nil

	case MemoryBackend:
		store, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		f.logger.InfoContext(ctx, "Memory repository ready", "seed_file", config.SeedFile)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCache(ctx context.Context, stack *Stack, config Config) (cache.Store, error) {
	if config.Redis {
		store, err := cache.NewRedisStore(ctx, config.RedisURL, config.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		stack.onClose(store.Close)
		return store, nil
	}

	store := cache.NewMemoryStore(config.CacheMaxEntries, config.CacheTTL)
	if config.CacheTTL > 0 {
		manager := cache.NewManager()
		manager.Register(store)
		manager.StartCleanup(config.CacheTTL)
		stack.onClose(func() error {
			manager.Stop()
			return nil
		})
	}
	return store, nil
}
