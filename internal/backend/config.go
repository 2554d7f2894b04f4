package backend

import (
	"fmt"
	"time"

	"ledgerbook/internal/config"
)

// BackendType names where the two datasets live.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	WebAppBackend BackendType = "webapp"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, WebAppBackend:
		return true
	default:
		return false
	}
}

// Repository reports whether the backend is a store this process owns.
func (bt BackendType) Repository() bool {
	return bt != WebAppBackend
}

// Config holds configuration for stack creation
type Config struct {
	Type        BackendType
	QueueWrites bool

	// Memory
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleRulesSheet         string
	GoogleLedgerSheet        string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Web app
	WebAppURL    string
	QueryTimeout time.Duration

	// Cache
	Redis           bool
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	CachePrefix     string

	// Processing
	ReloadDelay time.Duration
	Location    *time.Location
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	loc, err := appConfig.Location()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type:        backendType,
		QueueWrites: appConfig.CommandTransport == "amqp",

		SeedFile:     appConfig.SeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleRulesSheet:         appConfig.GoogleRulesSheet,
		GoogleLedgerSheet:        appConfig.GoogleLedgerSheet,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,

		WebAppURL:    appConfig.WebAppURL,
		QueryTimeout: appConfig.QueryTimeout,

		Redis:           appConfig.CacheBackend == "redis",
		RedisURL:        appConfig.RedisURL,
		CacheTTL:        appConfig.CacheTTL,
		CacheMaxEntries: appConfig.CacheMaxEntries,
		CachePrefix:     appConfig.CachePrefix,

		ReloadDelay: appConfig.ReloadDelay,
		Location:    loc,
	}, nil
}

// Validate checks the combinations the factory cannot build.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.QueueWrites && !c.Type.Repository() {
		return fmt.Errorf("queued writes need a repository backend, got %s", c.Type)
	}
	return nil
}
