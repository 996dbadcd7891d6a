package service

import (
	"log/slog"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

// processAggregatedData is the single serialized writer of the store.
func (s *MarketService) processAggregatedData(aggregator <-chan domain.PriceRecord) {
	defer s.wg.Done()

	for rec := range aggregator {
		s.apply(rec)
	}
	s.logger.Info("aggregator data channel closed")
}

func (s *MarketService) apply(rec domain.PriceRecord) {
	if !s.store.Upsert(rec) {
		s.logger.Debug("record rejected by store",
			slog.String("exchange", string(rec.Exchange)),
			slog.String("symbol", string(rec.Symbol)))
		return
	}
	s.touch(rec.Exchange, rec.ObservedAt)
}
