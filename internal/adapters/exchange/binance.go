package exchange

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

const binanceURL = "wss://stream.binance.com:9443"

// binance subscribes through the combined-stream URL; nothing is sent after open.
type binance struct {
	symbols symbolMap
}

type binanceEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type binanceTicker struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

func NewBinance(opts Options, logger *slog.Logger) *LiveExchange {
	return newLiveExchange(&binance{symbols: newSymbolMap(lower)}, binanceURL, opts, logger)
}

func (b *binance) name() domain.Exchange { return domain.Binance }

func (b *binance) endpoint(base string) string {
	streams := b.symbols.wires()
	for i, s := range streams {
		streams[i] = s + "@ticker"
	}
	return strings.TrimRight(base, "/") + "/stream?streams=" + strings.Join(streams, "/")
}

func (b *binance) subscription() any { return nil }

func (b *binance) parse(msg []byte) (domain.AssetSymbol, float64, bool, error) {
	payload := msg

	var env binanceEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return "", 0, false, fmt.Errorf("json unmarshal error: %w", err)
	}
	if len(env.Data) > 0 {
		payload = env.Data
	}

	var t binanceTicker
	if err := json.Unmarshal(payload, &t); err != nil {
		return "", 0, false, fmt.Errorf("json unmarshal error: %w", err)
	}
	if t.EventType != "24hrTicker" {
		return "", 0, false, nil
	}

	sym, ok := b.symbols.asset(strings.ToLower(t.Symbol))
	if !ok {
		return "", 0, false, nil
	}
	price, err := parsePrice(t.LastPrice)
	if err != nil {
		return "", 0, false, err
	}
	return sym, price, true, nil
}
