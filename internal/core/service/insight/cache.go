package insight

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
)

const (
	AnalysisCacheKey = "cryptoradar_analysis_cache"
	NewsCacheKey     = "cryptoradar_news_cache"
)

var (
	errMissingTimestamp = errors.New("cache entry has no timestamp")
	errMissingData      = errors.New("cache entry has no data")
)

type envelope[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

type rawEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache is a time-boxed entry in durable storage. Expired entries stay
// readable through Any as a last-resort fallback. An entry without a
// timestamp or whose data fails validate is deleted and reads as a miss.
type Cache[T any] struct {
	kv       port.KVStore
	key      string
	ttl      time.Duration
	now      func() time.Time
	validate func(T) error
	logger   *slog.Logger
}

func NewCache[T any](
	kv port.KVStore,
	key string,
	ttl time.Duration,
	now func() time.Time,
	validate func(T) error,
	logger *slog.Logger,
) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	if validate == nil {
		validate = func(T) error { return nil }
	}
	return &Cache[T]{kv: kv, key: key, ttl: ttl, now: now, validate: validate, logger: logger}
}

// Fresh returns the entry only if it is younger than the TTL.
func (c *Cache[T]) Fresh(ctx context.Context) (T, bool) {
	env, ok := c.read(ctx)
	if !ok {
		var zero T
		return zero, false
	}
	age := c.now().UnixMilli() - env.Timestamp
	if age < c.ttl.Milliseconds() {
		return env.Data, true
	}
	var zero T
	return zero, false
}

// Any returns the entry regardless of age.
func (c *Cache[T]) Any(ctx context.Context) (T, bool) {
	env, ok := c.read(ctx)
	return env.Data, ok
}

func (c *Cache[T]) Store(ctx context.Context, v T) error {
	raw, err := json.Marshal(envelope[T]{Data: v, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, c.key, string(raw))
}

func (c *Cache[T]) read(ctx context.Context) (envelope[T], bool) {
	raw, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("cache read failed", slog.String("key", c.key), slog.Any("error", err))
		}
		return envelope[T]{}, false
	}

	env, err := c.decode(raw)
	if err != nil {
		c.logger.Warn("discarding corrupt cache entry", slog.String("key", c.key), slog.Any("error", err))
		if err := c.kv.Delete(ctx, c.key); err != nil {
			c.logger.Warn("cache delete failed", slog.String("key", c.key), slog.Any("error", err))
		}
		return envelope[T]{}, false
	}
	return env, true
}

func (c *Cache[T]) decode(raw string) (envelope[T], error) {
	var env envelope[T]

	var r rawEnvelope
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return env, err
	}
	if r.Timestamp <= 0 {
		return env, errMissingTimestamp
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return env, errMissingData
	}
	if err := json.Unmarshal(r.Data, &env.Data); err != nil {
		return env, err
	}
	if err := c.validate(env.Data); err != nil {
		return env, err
	}
	env.Timestamp = r.Timestamp
	return env, nil
}
