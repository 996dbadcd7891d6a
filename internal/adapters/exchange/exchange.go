package exchange

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
)

var errBadPrice = errors.New("invalid price")

// symbolMap translates between tracked assets and one exchange's wire names.
type symbolMap struct {
	toWire   map[domain.AssetSymbol]string
	fromWire map[string]domain.AssetSymbol
}

func newSymbolMap(format func(domain.AssetSymbol) string) symbolMap {
	m := symbolMap{
		toWire:   make(map[domain.AssetSymbol]string, len(domain.Assets)),
		fromWire: make(map[string]domain.AssetSymbol, len(domain.Assets)),
	}
	for _, a := range domain.Assets {
		w := format(a)
		m.toWire[a] = w
		m.fromWire[w] = a
	}
	return m
}

func (m symbolMap) wire(a domain.AssetSymbol) string {
	return m.toWire[a]
}

func (m symbolMap) asset(w string) (domain.AssetSymbol, bool) {
	a, ok := m.fromWire[w]
	return a, ok
}

// wires lists the wire names in asset order.
func (m symbolMap) wires() []string {
	out := make([]string, 0, len(domain.Assets))
	for _, a := range domain.Assets {
		out = append(out, m.toWire[a])
	}
	return out
}

// dashed renders the "BTC-USDT" form used by Coinbase and OKX.
func dashed(a domain.AssetSymbol) string {
	return string(a) + "-" + domain.ReferenceUnit
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", errBadPrice, s, err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, fmt.Errorf("%w %q", errBadPrice, s)
	}
	return p, nil
}

// Builder constructs the adapter for one exchange.
type Builder func(opts Options, logger *slog.Logger) *LiveExchange

var registry = map[domain.Exchange]Builder{}

func Register(name domain.Exchange, b Builder) {
	registry[name] = b
}

func init() {
	Register(domain.Binance, NewBinance)
	Register(domain.Coinbase, NewCoinbase)
	Register(domain.OKX, NewOKX)
}

// Build returns adapters for every known exchange in domain order. opts is
// keyed by exchange; missing entries use the defaults.
func Build(opts map[domain.Exchange]Options, logger *slog.Logger) ([]port.ExchangePort, error) {
	out := make([]port.ExchangePort, 0, len(domain.Exchanges))
	for _, name := range domain.Exchanges {
		b, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownExchange, name)
		}
		out = append(out, b(opts[name], logger))
	}
	return out, nil
}

func lower(a domain.AssetSymbol) string {
	return strings.ToLower(string(a) + domain.ReferenceUnit)
}
