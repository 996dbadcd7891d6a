package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"github.com/redis/go-redis/v9"
)

var _ port.KVStore = (*KVStore)(nil)

const keyPrefix = "cryptoradar:kv:"

// KVStore keeps durable client state (watchlist, insight caches) in Redis.
type KVStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewKVStore(rdb *redis.Client, logger *slog.Logger) *KVStore {
	return &KVStore{
		rdb:    rdb,
		logger: logger,
	}
}

// Ping checks the connection to the Redis server.
func (c *KVStore) Ping(ctx context.Context) string {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

func (c *KVStore) key(k string) string {
	return keyPrefix + k
}

func (c *KVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		c.logger.Error("redis get failed", slog.String("key", key), slog.Any("error", err))
		return "", err
	}
	return val, nil
}

func (c *KVStore) Set(ctx context.Context, key string, value string) error {
	if err := c.rdb.Set(ctx, c.key(key), value, 0).Err(); err != nil {
		c.logger.Error("redis set failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

func (c *KVStore) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}
