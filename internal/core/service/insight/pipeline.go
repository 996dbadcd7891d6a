package insight

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Source tells the caller how fresh a pipeline result is.
type Source string

const (
	SourceLive    Source = "live"
	SourceCache   Source = "cache"
	SourceStale   Source = "stale-cache"
	SourceDefault Source = "default"
)

type Result[T any] struct {
	Value     T         `json:"data"`
	Source    Source    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Options struct {
	TTL      time.Duration
	Interval time.Duration
	Retry    RetryPolicy
	Now      func() time.Time
}

// Pipeline resolves one insight: fresh cache, else a retried generation,
// else stale cache, else a fixed default. It never returns an error.
type Pipeline[T any] struct {
	name        string
	cache       *Cache[T]
	retry       RetryPolicy
	interval    time.Duration
	now         func() time.Time
	fetch       func(context.Context) (T, error)
	shouldCache func(T) bool
	fallback    func() T
	logger      *slog.Logger

	inFlight atomic.Bool

	mu     sync.RWMutex
	latest *Result[T]
}

// Refresh resolves a new result. A call made while another is running starts
// nothing and returns the latest known result with started=false.
func (p *Pipeline[T]) Refresh(ctx context.Context) (res Result[T], started bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("refresh already in flight", slog.String("pipeline", p.name))
		latest, _ := p.Latest()
		return latest, false
	}
	defer p.inFlight.Store(false)

	res = p.resolve(ctx)

	p.mu.Lock()
	p.latest = &res
	p.mu.Unlock()

	return res, true
}

// Latest returns the last resolved result, if any.
func (p *Pipeline[T]) Latest() (Result[T], bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Result[T]{Value: p.fallback(), Source: SourceDefault}, false
	}
	return *p.latest, true
}

func (p *Pipeline[T]) resolve(ctx context.Context) Result[T] {
	if v, ok := p.cache.Fresh(ctx); ok {
		return Result[T]{Value: v, Source: SourceCache, UpdatedAt: p.now()}
	}

	v, err := retry(ctx, p.retry, p.logger, p.name, p.fetch)
	if err == nil {
		if p.shouldCache(v) {
			if err := p.cache.Store(ctx, v); err != nil {
				p.logger.Warn("cache write failed", slog.String("pipeline", p.name), slog.Any("error", err))
			}
		}
		return Result[T]{Value: v, Source: SourceLive, UpdatedAt: p.now()}
	}

	p.logger.Error("insight generation failed", slog.String("pipeline", p.name), slog.Any("error", err))

	if v, ok := p.cache.Any(ctx); ok {
		return Result[T]{Value: v, Source: SourceStale, UpdatedAt: p.now()}
	}
	return Result[T]{Value: p.fallback(), Source: SourceDefault, UpdatedAt: p.now()}
}

// Run refreshes immediately and then on every interval until ctx is done.
func (p *Pipeline[T]) Run(ctx context.Context) {
	p.logger.Info("insight refresh loop started",
		slog.String("pipeline", p.name),
		slog.Duration("interval", p.interval))

	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("insight refresh loop stopped", slog.String("pipeline", p.name))
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
