package cache

import (
	"context"
	"log/slog"
)

// Coordinator maps datasets to store keys. It is the only component that
// drops cached datasets after a mutation.
type Coordinator struct {
	store  Store
	prefix string
}

func NewCoordinator(store Store, prefix string) *Coordinator {
	return &Coordinator{store: store, prefix: prefix}
}

// Key returns the store key of a dataset.
func (c *Coordinator) Key(d Dataset) string {
	return c.prefix + string(d)
}

// Load returns the cached payload of a dataset. Store errors count as misses.
func (c *Coordinator) Load(ctx context.Context, d Dataset) ([]byte, bool) {
	b, ok, err := c.store.Get(ctx, c.Key(d))
	if err != nil {
		slog.WarnContext(ctx, "Cache read failed", "dataset", string(d), "error", err)
		return nil, false
	}
	return b, ok
}

// Save stores a freshly queried payload. Failures are logged only.
func (c *Coordinator) Save(ctx context.Context, d Dataset, payload []byte) {
	if err := c.store.Set(ctx, c.Key(d), payload); err != nil {
		slog.WarnContext(ctx, "Cache write failed", "dataset", string(d), "error", err)
	}
}

// Invalidate drops the given datasets so the next read goes to the backend.
func (c *Coordinator) Invalidate(ctx context.Context, datasets ...Dataset) {
	if len(datasets) == 0 {
		return
	}
	keys := make([]string, len(datasets))
	for i, d := range datasets {
		keys[i] = c.Key(d)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed", "keys", keys, "error", err)
		return
	}
	slog.DebugContext(ctx, "Cache invalidated", "keys", keys)
}
