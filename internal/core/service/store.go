package service

import (
	"sync"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

// Store is the process-wide aggregation of last known prices. Writers go
// through Upsert only; entries are replaced, never removed.
type Store struct {
	mu    sync.RWMutex
	state domain.AggregatedState
}

func NewStore() *Store {
	return &Store{state: domain.NewAggregatedState()}
}

// Upsert replaces the record for (symbol, exchange). It reports false for
// records outside the tracked sets.
func (s *Store) Upsert(r domain.PriceRecord) bool {
	if !r.Symbol.Valid() || !r.Exchange.Valid() {
		return false
	}

	s.mu.Lock()
	s.state[r.Symbol][r.Exchange] = r
	s.mu.Unlock()
	return true
}

// Snapshot returns a deep copy that always holds every tracked asset.
func (s *Store) Snapshot() domain.AggregatedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(domain.AggregatedState, len(s.state))
	for sym, byEx := range s.state {
		cp := make(map[domain.Exchange]domain.PriceRecord, len(byEx))
		for ex, r := range byEx {
			cp[ex] = r
		}
		out[sym] = cp
	}
	return out
}
