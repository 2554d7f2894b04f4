// Package cache holds the process-wide dataset cache the scheduler consults
// before querying and invalidates after mutating.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Dataset is the logical name of a cached query result.
type Dataset string

const (
	Transactions          Dataset = "transactions"
	RecurringTransactions Dataset = "recurringTransactions"
)

// Store is a key/value cache of raw payloads with a fixed TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStore adapts LRUCache to Store.
type MemoryStore struct {
	lru *LRUCache[[]byte]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: NewLRUCache[[]byte](maxEntries, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.lru.Set(key, append([]byte(nil), value...))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Delete(k)
	}
	return nil
}

// CleanExpired lets a Manager sweep the store.
func (s *MemoryStore) CleanExpired() int {
	return s.lru.CleanExpired()
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	started     bool
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanOnce(); n > 0 {
				slog.Debug("Expired cache entries removed", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanOnce sweeps every registered cache and returns the number of entries removed.
func (m *Manager) CleanOnce() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup routine started by StartCleanup.
func (m *Manager) Stop() {
	select {
	case <-m.stopCleanup:
		return
	default:
	}
	close(m.stopCleanup)
	if m.started {
		<-m.cleanupDone
	}
}
