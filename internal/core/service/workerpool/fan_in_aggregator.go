package workerpool

import (
	"log/slog"
	"sync"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

// FanInAggregator merges per-exchange record streams into one channel. Order
// is kept within each input; inputs interleave arbitrarily. The output is
// closed once every input has been closed and drained.
type FanInAggregator struct {
	inputChannels []<-chan domain.PriceRecord
	outputChan    chan domain.PriceRecord
	wg            sync.WaitGroup
	logger        *slog.Logger
}

func NewFanInAggregator(logger *slog.Logger) *FanInAggregator {
	return &FanInAggregator{
		outputChan: make(chan domain.PriceRecord, 1000),
		logger:     logger,
	}
}

// AddInputChan must be called before Start.
func (f *FanInAggregator) AddInputChan(ch <-chan domain.PriceRecord) {
	f.inputChannels = append(f.inputChannels, ch)
}

func (f *FanInAggregator) Start() <-chan domain.PriceRecord {
	f.logger.Info("Starting fan-in aggregator",
		slog.Int("input_channels", len(f.inputChannels)))

	for i, inputChan := range f.inputChannels {
		f.wg.Add(1)
		go f.aggregateFrom(inputChan, i)
	}

	go func() {
		f.wg.Wait()
		close(f.outputChan)
		f.logger.Info("Fan-in aggregator stopped")
	}()

	return f.outputChan
}

func (f *FanInAggregator) aggregateFrom(input <-chan domain.PriceRecord, channelID int) {
	defer f.wg.Done()

	for rec := range input {
		f.outputChan <- rec
	}
	f.logger.Debug("Input channel closed", slog.Int("channel_id", channelID))
}
