package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ port.KVStore = (*KVRepository)(nil)

type KVRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewKVRepository(db *pgxpool.Pool, logger *slog.Logger) *KVRepository {
	return &KVRepository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the key-value table if it does not exist.
func (r *KVRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("migrate kv_store: %w", err)
	}
	return nil
}

func (r *KVRepository) Ping(ctx context.Context) string {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *KVRepository) Set(ctx context.Context, key string, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		r.logger.Error("failed to save kv entry", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	return err
}
