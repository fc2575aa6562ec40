// Package cache holds the Redis-backed coordination primitives.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/affstack/backend/internal/infrastructure/config"
)

// SyncLock guards one (user, network) sync run across instances. Only one
// run may hold the lock at a time; the TTL releases crashed holders.
type SyncLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient builds and pings a Redis client from configuration.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewSyncLock creates a sync lock with an existing Redis client.
func NewSyncLock(client *redis.Client, ttl time.Duration) *SyncLock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SyncLock{
		client:    client,
		keyPrefix: "sync:lock:",
		ttl:       ttl,
	}
}

// Acquire attempts to take the lock for a key. Returns false when another
// run already holds it. SETNX keeps the take atomic across instances.
func (l *SyncLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock for a key. Safe to call when the lock has already
// expired.
func (l *SyncLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}
