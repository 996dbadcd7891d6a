package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/axionnode/CryptoRadar/internal/core/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runs only against a database named by TEST_DATABASE_URL.
func newTestRepo(t *testing.T) *KVRepository {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	repo := NewKVRepository(pool, slog.Default())
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repo
}

func TestKVRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	key := "test_analysis_cache"
	t.Cleanup(func() { repo.Delete(ctx, key) })

	if err := repo.Set(ctx, key, "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, key, "v2"); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	got, err := repo.Get(ctx, key)
	if err != nil || got != "v2" {
		t.Errorf("Get = %q, %v, want v2", got, err)
	}
	if repo.Ping(ctx) != "up" {
		t.Error("Ping reported down")
	}
}

func TestKVRepository_Missing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "no_such_key"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
