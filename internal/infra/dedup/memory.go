package dedup

import (
	"context"
	"sync"
	"time"

	"parkgate/internal/pkg/clock"
)

// MemoryDedup is the in-process fallback used in tests and when Redis is not
// configured. Expired keys are purged lazily on access.
type MemoryDedup struct {
	mu    sync.Mutex
	keys  map[string]time.Time
	clock clock.Clock
}

func NewMemoryDedup(clk clock.Clock) *MemoryDedup {
	return &MemoryDedup{
		keys:  make(map[string]time.Time),
		clock: clk,
	}
}

func (d *MemoryDedup) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if expiry, held := d.keys[key]; held && now.Before(expiry) {
		return false, nil
	}
	d.keys[key] = now.Add(ttl)
	return true, nil
}
