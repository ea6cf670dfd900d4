package redisutils

import (
	"context"
	"fmt"
	"time"

	"github.com/fundwire/ledgerd/internal/config"

	"github.com/go-redis/redis/v8"
)

// Open creates a redis client and verifies connectivity with a short ping.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
