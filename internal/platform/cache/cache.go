// Package cache provides the shared Redis handle backing sessions, token
// revocation, login-attempt tracking and the user cache. The handle is
// constructed once at bootstrap and injected into each registry; no package
// level singleton exists.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config captures connection options for the shared cache.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// Connect opens and verifies a Redis connection.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
