package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
)

const WatchlistKey = "cryptoradar_watchlist"

// Watchlist is the user-curated set of assets, kept in insertion order and
// persisted as a JSON string list.
type Watchlist struct {
	mu     sync.Mutex
	kv     port.KVStore
	items  []domain.AssetSymbol
	logger *slog.Logger
}

// NewWatchlist loads the persisted list. Missing or corrupt data starts empty.
func NewWatchlist(ctx context.Context, kv port.KVStore, logger *slog.Logger) *Watchlist {
	w := &Watchlist{kv: kv, logger: logger, items: []domain.AssetSymbol{}}

	raw, err := kv.Get(ctx, WatchlistKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("failed to load watchlist", slog.Any("error", err))
		}
		return w
	}

	var saved []domain.AssetSymbol
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		logger.Warn("discarding corrupt watchlist", slog.Any("error", err))
		return w
	}
	for _, s := range saved {
		if s.Valid() && !slices.Contains(w.items, s) {
			w.items = append(w.items, s)
		}
	}
	return w
}

// Toggle removes sym when present and appends it otherwise, then persists.
// It reports whether sym is watched afterwards.
func (w *Watchlist) Toggle(ctx context.Context, sym domain.AssetSymbol) (bool, error) {
	if !sym.Valid() {
		return false, domain.ErrUnknownAsset
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next := slices.Clone(w.items)
	watched := false
	if i := slices.Index(next, sym); i >= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, sym)
		watched = true
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	if err := w.kv.Set(ctx, WatchlistKey, string(raw)); err != nil {
		return false, fmt.Errorf("persist watchlist: %w", err)
	}

	w.items = next
	return watched, nil
}

func (w *Watchlist) Contains(sym domain.AssetSymbol) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.items, sym)
}

func (w *Watchlist) List() []domain.AssetSymbol {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.items)
}
