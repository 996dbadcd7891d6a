package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
	"github.com/axionnode/CryptoRadar/internal/core/service/workerpool"
)

var _ port.MarketServicePort = (*MarketService)(nil)

const feedBuffer = 256

type MarketService struct {
	store      *Store
	exchanges  []port.ExchangePort
	logger     *slog.Logger
	now        func() time.Time
	bufferSize int

	aggregator *workerpool.FanInAggregator
	feeds      []chan domain.PriceRecord
	stops      []func()
	done       chan struct{}

	statusMu    sync.RWMutex
	status      domain.ConnectionStatus
	connectedAt map[domain.Exchange]time.Time

	currencyMu sync.RWMutex
	selected   domain.CurrencyBasis

	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
}

func NewMarketService(
	store *Store,
	exchanges []port.ExchangePort,
	logger *slog.Logger,
) *MarketService {
	status := make(domain.ConnectionStatus, len(exchanges))
	for _, ex := range exchanges {
		status[ex.Name()] = domain.ExchangeStatus{Exchange: ex.Name()}
	}

	return &MarketService{
		store:       store,
		exchanges:   exchanges,
		logger:      logger,
		now:         time.Now,
		bufferSize:  feedBuffer,
		status:      status,
		connectedAt: make(map[domain.Exchange]time.Time, len(exchanges)),
		selected:    domain.DefaultCurrency(),
	}
}

// Start connects every exchange and routes their records through the fan-in
// aggregator into a single update loop.
func (s *MarketService) Start() {
	s.logger.Info("Starting market data service", slog.Int("exchanges", len(s.exchanges)))

	s.done = make(chan struct{})
	s.aggregator = workerpool.NewFanInAggregator(s.logger)
	s.feeds = make([]chan domain.PriceRecord, len(s.exchanges))
	for i := range s.exchanges {
		s.feeds[i] = make(chan domain.PriceRecord, s.bufferSize)
		s.aggregator.AddInputChan(s.feeds[i])
	}

	aggregatorChan := s.aggregator.Start()

	s.wg.Add(1)
	go s.processAggregatedData(aggregatorChan)

	for i, ex := range s.exchanges {
		s.stops = append(s.stops, ex.Start(s.handlersFor(ex.Name(), s.feeds[i])))
	}
	s.started = true

	s.logger.Info("Market data service started successfully")
}

// Stop tears down all feeds; no store update happens after it returns.
func (s *MarketService) Stop() {
	s.stopOnce.Do(func() {
		if !s.started {
			return
		}
		close(s.done)
		for _, stop := range s.stops {
			stop()
		}
		for _, feed := range s.feeds {
			close(feed)
		}
		s.wg.Wait()
		s.logger.Info("Market data service stopped")
	})
}

func (s *MarketService) handlersFor(name domain.Exchange, feed chan<- domain.PriceRecord) port.FeedHandlers {
	return port.FeedHandlers{
		// Blocks while the feed is full; gives up only once Stop has begun.
		OnPrice: func(r domain.PriceRecord) {
			select {
			case feed <- r:
			case <-s.done:
			}
		},
		OnConnected: func() {
			s.setConnected(name, true)
		},
		OnDisconnected: func(err error) {
			s.setConnected(name, false)
			if err != nil {
				s.logger.Warn("exchange feed disconnected",
					slog.String("exchange", string(name)),
					slog.Any("error", err))
			}
		},
	}
}

func (s *MarketService) setConnected(name domain.Exchange, connected bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status[name]
	st.Exchange = name
	st.Connected = connected
	st.Receiving = false
	s.status[name] = st
	if connected {
		s.connectedAt[name] = s.now()
	}
}

// touch records a stored price. Records observed before the current
// connection opened are leftovers from an earlier session and do not count
// as receiving.
func (s *MarketService) touch(name domain.Exchange, at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status[name]
	if st.Connected && !at.Before(s.connectedAt[name]) {
		st.Receiving = true
	}
	st.LastMessageAt = at
	s.status[name] = st
}

func (s *MarketService) Status() domain.ConnectionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	out := make(domain.ConnectionStatus, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}

// Snapshot satisfies the insight pipelines' view of the aggregated state.
func (s *MarketService) Snapshot() domain.AggregatedState {
	return s.store.Snapshot()
}

func (s *MarketService) SelectCurrency(code string) (domain.CurrencyBasis, error) {
	basis, err := domain.LookupCurrency(code)
	if err != nil {
		return domain.CurrencyBasis{}, err
	}

	s.currencyMu.Lock()
	s.selected = basis
	s.currencyMu.Unlock()

	s.logger.Info("currency basis selected", slog.String("code", basis.Code))
	return basis, nil
}

func (s *MarketService) SelectedCurrency() domain.CurrencyBasis {
	s.currencyMu.RLock()
	defer s.currencyMu.RUnlock()
	return s.selected
}

// Prices renders the pricing view in the given basis, or in the selected one
// when code is empty.
func (s *MarketService) Prices(code string) (domain.PricingView, error) {
	basis := s.SelectedCurrency()
	if code != "" {
		var err error
		basis, err = domain.LookupCurrency(code)
		if err != nil {
			return domain.PricingView{}, err
		}
	}
	return Price(s.store.Snapshot(), basis), nil
}
