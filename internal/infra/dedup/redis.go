package dedup

import (
	"context"
	"fmt"
	"time"

	"parkgate/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisDedup implements alert cooldown suppression with SET NX + TTL: the
// first acquirer within the window wins, later ones are suppressed until the
// key expires.
type RedisDedup struct {
	client *redis.Client
}

func NewRedisDedup(client *redis.Client) *RedisDedup {
	return &RedisDedup{client: client}
}

func (d *RedisDedup) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire dedup key %q: %w", key, err)
	}
	return ok, nil
}

func ConnectRedis(cfg config.RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	cleanup := func() { _ = client.Close() }
	return client, cleanup, nil
}
