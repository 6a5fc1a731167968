package bootstrap

import (
	"context"
	"log/slog"

	"parkgate/internal/infra/dedup"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/monitor"

	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewDedupStore,
	),
)

// NewDedupStore backs alert deduplication with Redis when an address is
// configured. Without one a single-process in-memory store is used, which is
// fine for local runs but loses cooldown state on restart.
func NewDedupStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock) (monitor.DedupStore, error) {
	if cfg.Redis.Addr == "" {
		slog.Warn("REDIS_ADDR is empty, using in-memory alert dedup")
		return dedup.NewMemoryDedup(clk), nil
	}

	client, cleanup, err := dedup.ConnectRedis(cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return dedup.NewRedisDedup(client), nil
}
