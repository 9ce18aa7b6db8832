// Package cache provides the page cache and the refresh lock used when
// fetching bill pages. Values are stored zstd-compressed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/jjenkins/billtracker/internal/config"
)

var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = errors.New("cache miss")
	// ErrLocked is returned by Lock when another holder has the key.
	ErrLocked = errors.New("lock held by another refresh")
)

// Cache stores byte values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UnlockFunc releases a lock taken with Locker.Lock.
type UnlockFunc func(ctx context.Context) error

// Locker hands out exclusive, self-expiring locks.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

func compress(value []byte) []byte {
	return encoder.EncodeAll(value, make([]byte, 0, len(value)/2))
}

func decompress(value []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(value, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cached value: %w", err)
	}
	return out, nil
}

// Open builds the cache and locker for the configured backend. The
// returned close function releases any connection.
func Open(cfg config.CacheConfig) (Cache, Locker, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), NewMemoryLocker(), func() error { return nil }, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		return NewRedis(client, cfg.KeyPrefix), NewRedisLocker(client, cfg.KeyPrefix), client.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
