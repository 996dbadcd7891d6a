package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ port.KVStore = (*KVRepository)(nil)

type KVEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_store"
}

// KVRepository is the default local store, a single sqlite file.
type KVRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewKVRepository(db *gorm.DB, logger *slog.Logger) *KVRepository {
	return &KVRepository{db: db, logger: logger}
}

func (r *KVRepository) Migrate() error {
	if err := r.db.AutoMigrate(&KVEntry{}); err != nil {
		return fmt.Errorf("migrate kv_store: %w", err)
	}
	return nil
}

func (r *KVRepository) Ping(ctx context.Context) string {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var e KVEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (r *KVRepository) Set(ctx context.Context, key string, value string) error {
	e := KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		r.logger.Error("failed to save kv entry", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error
}
