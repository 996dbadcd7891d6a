package insight

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy retries quota failures with exponential backoff. Any other error
// ends the attempt loop immediately.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Sleep        SleepFunc
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay returns the wait before the retry that follows attempt i (0-based).
func (p RetryPolicy) Delay(i int) time.Duration {
	return p.InitialDelay << i
}

func retry[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, name string, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrQuotaExhausted) || i == attempts-1 {
			return zero, err
		}

		delay := p.Delay(i)
		logger.Warn("generation quota hit, backing off",
			slog.String("pipeline", name),
			slog.Int("attempt", i+1),
			slog.Duration("delay", delay))

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}
