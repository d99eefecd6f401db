// Package redis provides helpers for establishing redis connections.
package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Open creates a redis.Client and verifies the server is reachable.
func Open(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("while pinging redis: %w", err)
	}
	return rdb, nil
}
