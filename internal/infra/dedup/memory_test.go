//go:build unit

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/pkg/clock"
)

func TestMemoryDedupAcquire(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)
	store := NewMemoryDedup(clk)
	ctx := context.Background()

	acquired, err := store.Acquire(ctx, "longstay:abc:warning", 6*time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = store.Acquire(ctx, "longstay:abc:warning", 6*time.Hour)
	require.NoError(t, err)
	assert.False(t, acquired, "held key must not be re-acquired inside the TTL")

	acquired, err = store.Acquire(ctx, "longstay:abc:critical", 12*time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired, "different key is independent")

	clk.Advance(6*time.Hour + time.Second)
	acquired, err = store.Acquire(ctx, "longstay:abc:warning", 6*time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired, "expired key is free again")

	acquired, err = store.Acquire(ctx, "longstay:abc:critical", 12*time.Hour)
	require.NoError(t, err)
	assert.False(t, acquired, "longer TTL still holding")
}
