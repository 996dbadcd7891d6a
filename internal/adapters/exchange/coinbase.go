package exchange

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

const coinbaseURL = "wss://ws-feed.exchange.coinbase.com"

type coinbase struct {
	symbols symbolMap
}

type coinbaseSubscribe struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type coinbaseMsg struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
}

func NewCoinbase(opts Options, logger *slog.Logger) *LiveExchange {
	return newLiveExchange(&coinbase{symbols: newSymbolMap(dashed)}, coinbaseURL, opts, logger)
}

func (c *coinbase) name() domain.Exchange { return domain.Coinbase }

func (c *coinbase) endpoint(base string) string { return base }

func (c *coinbase) subscription() any {
	return coinbaseSubscribe{
		Type:       "subscribe",
		ProductIDs: c.symbols.wires(),
		Channels:   []string{"ticker"},
	}
}

func (c *coinbase) parse(msg []byte) (domain.AssetSymbol, float64, bool, error) {
	var m coinbaseMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return "", 0, false, fmt.Errorf("json unmarshal error: %w", err)
	}
	// subscriptions acks, heartbeats and errors
	if m.Type != "ticker" {
		return "", 0, false, nil
	}

	sym, ok := c.symbols.asset(m.ProductID)
	if !ok {
		return "", 0, false, nil
	}
	price, err := parsePrice(m.Price)
	if err != nil {
		return "", 0, false, err
	}
	return sym, price, true, nil
}
