package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/axionnode/CryptoRadar/internal/adapters/cache/redis"
	"github.com/axionnode/CryptoRadar/internal/adapters/repository/postgres"
	"github.com/axionnode/CryptoRadar/internal/adapters/repository/sqlite"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Dependencies struct {
	Postgres *pgxpool.Pool
	Redis    *goredis.Client
	SQLite   *gorm.DB
	Logger   *slog.Logger
	// Store is the durable key-value backend selected by the options.
	Store port.KVStore
}

type Option func(context.Context, *Dependencies) error

func (d *Dependencies) Close() {
	if d == nil {
		return
	}

	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.SQLite != nil {
		if sqlDB, err := d.SQLite.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// NewDependencies applies opts in order. If one fails, everything opened by
// the earlier ones is closed.
func NewDependencies(ctx context.Context, opts ...Option) (*Dependencies, error) {
	deps := &Dependencies{Logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(ctx, deps); err != nil {
			deps.Close()
			return nil, err
		}
	}

	return deps, nil
}

func WithPostgres(
	user string,
	password string,
	host string,
	port string,
	dbName string,
) Option {
	return func(ctx context.Context, d *Dependencies) error {
		format := "postgresql://%s:%s@%s:%s/%s?sslmode=disable"
		connString := fmt.Sprintf(format, user, password, host, port, dbName)

		pool, err := pgxpool.New(ctx, connString)
		if err != nil {
			return err
		}
		d.Postgres = pool

		repo := postgres.NewKVRepository(pool, d.Logger)
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		d.Store = repo
		return nil
	}
}

func WithRedis(addr, password string, db int) Option {
	return func(ctx context.Context, d *Dependencies) error {
		client := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
		d.Redis = client

		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}

		d.Store = redis.NewKVStore(client, d.Logger)
		return nil
	}
}

func WithSQLite(path string) Option {
	return func(_ context.Context, d *Dependencies) error {
		db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", path, err)
		}
		d.SQLite = db

		repo := sqlite.NewKVRepository(db, d.Logger)
		if err := repo.Migrate(); err != nil {
			return err
		}
		d.Store = repo
		return nil
	}
}

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// WithLogger must come first so later options log through it.
func WithLogger(level string) Option {
	return func(_ context.Context, d *Dependencies) error {
		var logLvl slog.Level

		switch level {
		case EnvDev:
			logLvl = slog.LevelDebug
		case EnvProd:
			logLvl = slog.LevelInfo
		}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLvl,
		}))
		slog.SetDefault(logger)
		d.Logger = logger
		return nil
	}
}
