package port

import (
	"context"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

// FeedHandlers receives events from one exchange feed. All three callbacks are
// invoked from the feed's own goroutine and never after its stop func returns.
type FeedHandlers struct {
	OnPrice        func(domain.PriceRecord)
	OnConnected    func()
	OnDisconnected func(err error)
}

type ExchangePort interface {
	Name() domain.Exchange
	// Start dials in the background and returns an idempotent stop func.
	Start(h FeedHandlers) (stop func())
	IsConnected() bool
}

// KVStore is the durable key-value capability shared by the watchlist and the
// insight caches. Get returns domain.ErrNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) string
}

// Schema describes the structured output a TextGenerator must honor.
type Schema struct {
	Type       string            `json:"type"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Enum       []string          `json:"enum,omitempty"`
	Required   []string          `json:"required,omitempty"`
}

const (
	SchemaObject = "object"
	SchemaArray  = "array"
	SchemaString = "string"
)

type TextGenerator interface {
	// GenerateJSON returns raw JSON text conforming to schema. Rate-limit
	// failures wrap domain.ErrQuotaExhausted.
	GenerateJSON(ctx context.Context, prompt string, schema Schema, useSearch bool) (string, error)
}

type MarketServicePort interface {
	Prices(code string) (domain.PricingView, error)
	Status() domain.ConnectionStatus
	SelectCurrency(code string) (domain.CurrencyBasis, error)
	SelectedCurrency() domain.CurrencyBasis
}
