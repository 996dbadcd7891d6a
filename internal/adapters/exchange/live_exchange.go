package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"github.com/gorilla/websocket"
)

var _ port.ExchangePort = (*LiveExchange)(nil)

// protocol is the exchange-specific half of a feed: where to dial, what to
// send after open, and how to read a ticker frame.
type protocol interface {
	name() domain.Exchange
	endpoint(base string) string
	// subscription returns nil when the subscription lives in the URL.
	subscription() any
	// parse reports ok=false for frames that carry no tracked ticker.
	parse(msg []byte) (sym domain.AssetSymbol, price float64, ok bool, err error)
}

type ReconnectPolicy struct {
	Enabled      bool
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

type Options struct {
	URL              string
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
	Reconnect        ReconnectPolicy
	Now              func() time.Time
}

// LiveExchange owns one WebSocket connection to an exchange ticker channel.
type LiveExchange struct {
	ID     domain.Exchange
	URL    string
	proto  protocol
	opts   Options
	logger *slog.Logger

	wg        sync.WaitGroup
	connected bool
	mu        sync.RWMutex
}

func newLiveExchange(p protocol, defaultURL string, opts Options, logger *slog.Logger) *LiveExchange {
	if opts.URL == "" {
		opts.URL = defaultURL
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 15 * time.Second
	}
	if opts.Reconnect.InitialDelay <= 0 {
		opts.Reconnect.InitialDelay = time.Second
	}
	if opts.Reconnect.MaxDelay <= 0 {
		opts.Reconnect.MaxDelay = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &LiveExchange{
		ID:     p.name(),
		URL:    p.endpoint(opts.URL),
		proto:  p,
		opts:   opts,
		logger: logger.With(slog.String("exchange", string(p.name()))),
	}
}

func (e *LiveExchange) Name() domain.Exchange {
	return e.ID
}

// Start connects in the background. The returned func closes the connection,
// waits for the feed goroutine, and is safe to call repeatedly.
func (e *LiveExchange) Start(h port.FeedHandlers) func() {
	ctx, cancel := context.WithCancel(context.Background())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, h)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			e.wg.Wait()
			e.logger.Info("exchange feed stopped")
		})
	}
}

func (e *LiveExchange) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *LiveExchange) setConnected(connected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = connected
}

func (e *LiveExchange) run(ctx context.Context, h port.FeedHandlers) {
	backoff := e.opts.Reconnect.InitialDelay

	for {
		established, err := e.connectAndRead(ctx, h)
		if ctx.Err() != nil {
			return
		}
		if h.OnDisconnected != nil {
			h.OnDisconnected(err)
		}

		if !e.opts.Reconnect.Enabled {
			e.logger.Warn("exchange feed closed, reconnect disabled", slog.Any("error", err))
			return
		}
		if established {
			backoff = e.opts.Reconnect.InitialDelay
		}

		e.logger.Info("reconnecting exchange feed", slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < e.opts.Reconnect.MaxDelay {
			backoff = min(backoff*2, e.opts.Reconnect.MaxDelay)
		}
	}
}

// connectAndRead runs one connection lifecycle. established reports whether
// the transport opened.
func (e *LiveExchange) connectAndRead(ctx context.Context, h port.FeedHandlers) (established bool, err error) {
	e.setConnected(false)

	dialer := websocket.Dialer{HandshakeTimeout: e.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, e.URL, nil)
	if err != nil {
		e.logger.Error("failed to connect to exchange",
			slog.String("address", e.URL),
			slog.Any("error", err))
		return false, fmt.Errorf("dial %s: %w", e.ID, err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	var pingWg sync.WaitGroup
	stopClose := context.AfterFunc(sessCtx, func() { conn.Close() })
	defer func() {
		cancel()
		pingWg.Wait()
		stopClose()
		conn.Close()
		e.setConnected(false)
	}()

	e.setConnected(true)
	e.logger.Info("connected to exchange", slog.String("address", e.URL))
	if h.OnConnected != nil {
		h.OnConnected()
	}

	if sub := e.proto.subscription(); sub != nil {
		if err := conn.WriteJSON(sub); err != nil {
			return true, fmt.Errorf("subscribe %s: %w", e.ID, err)
		}
		e.logger.Debug("subscription sent")
	}

	pingWg.Add(1)
	go func() {
		defer pingWg.Done()
		e.pingLoop(sessCtx, conn)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if sessCtx.Err() != nil {
				return true, nil
			}
			return true, fmt.Errorf("read %s: %w", e.ID, err)
		}
		e.handleMessage(message, h)
	}
}

// handleMessage never lets a bad frame escape the read loop.
func (e *LiveExchange) handleMessage(message []byte, h port.FeedHandlers) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while handling message", slog.Any("panic", r))
		}
	}()

	sym, price, ok, err := e.proto.parse(message)
	if err != nil {
		e.logger.Debug("parse error", slog.Any("error", err))
		return
	}
	if !ok {
		return
	}

	if h.OnPrice != nil {
		h.OnPrice(domain.PriceRecord{
			Exchange:   e.ID,
			Symbol:     sym,
			Price:      price,
			ObservedAt: e.opts.Now(),
		})
	}
}

func (e *LiveExchange) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(e.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				e.logger.Warn("ping error", slog.Any("error", err))
				return
			}
		}
	}
}
