package domain

import "time"

type AssetSymbol string

const (
	BTC  AssetSymbol = "BTC"
	ETH  AssetSymbol = "ETH"
	SOL  AssetSymbol = "SOL"
	BNB  AssetSymbol = "BNB"
	XRP  AssetSymbol = "XRP"
	DOGE AssetSymbol = "DOGE"
	LINK AssetSymbol = "LINK"
)

// Assets is the fixed set of tracked tickers, in display order.
var Assets = []AssetSymbol{BTC, ETH, SOL, BNB, XRP, DOGE, LINK}

func ParseAsset(s string) (AssetSymbol, error) {
	for _, a := range Assets {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrUnknownAsset
}

func (a AssetSymbol) Valid() bool {
	_, err := ParseAsset(string(a))
	return err == nil
}

type AssetInfo struct {
	Symbol   AssetSymbol `json:"symbol"`
	FullName string      `json:"fullName"`
	Category string      `json:"category"`
}

var assetInfo = map[AssetSymbol]AssetInfo{
	BTC:  {Symbol: BTC, FullName: "Bitcoin", Category: "Layer 1"},
	ETH:  {Symbol: ETH, FullName: "Ethereum", Category: "Smart Contract"},
	SOL:  {Symbol: SOL, FullName: "Solana", Category: "High-Perf L1"},
	BNB:  {Symbol: BNB, FullName: "BNB Chain", Category: "Ecosystem"},
	XRP:  {Symbol: XRP, FullName: "Ripple", Category: "Payment"},
	DOGE: {Symbol: DOGE, FullName: "Dogecoin", Category: "Meme"},
	LINK: {Symbol: LINK, FullName: "Chainlink", Category: "Oracle"},
}

func Info(a AssetSymbol) AssetInfo {
	return assetInfo[a]
}

type Exchange string

const (
	Binance  Exchange = "Binance"
	Coinbase Exchange = "Coinbase"
	OKX      Exchange = "OKX"
)

var Exchanges = []Exchange{Binance, Coinbase, OKX}

func (e Exchange) Valid() bool {
	for _, x := range Exchanges {
		if x == e {
			return true
		}
	}
	return false
}

// PriceRecord is one observed last price, quoted in the reference unit (USDT).
type PriceRecord struct {
	Exchange   Exchange    `json:"exchange"`
	Symbol     AssetSymbol `json:"symbol"`
	Price      float64     `json:"price"`
	ObservedAt time.Time   `json:"observedAt"`
}

// AggregatedState holds the last known record per asset and exchange.
// Every tracked asset is present as a key, possibly with no records.
type AggregatedState map[AssetSymbol]map[Exchange]PriceRecord

func NewAggregatedState() AggregatedState {
	s := make(AggregatedState, len(Assets))
	for _, a := range Assets {
		s[a] = make(map[Exchange]PriceRecord)
	}
	return s
}

// ExchangeStatus separates an open channel (Connected) from data actually
// arriving on it (Receiving). Both reset on every connection attempt.
type ExchangeStatus struct {
	Exchange      Exchange  `json:"exchange"`
	Connected     bool      `json:"connected"`
	Receiving     bool      `json:"receiving"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

type ConnectionStatus map[Exchange]ExchangeStatus

type HealthResponse struct {
	Status    string           `json:"status"`
	Storage   string           `json:"storage"`
	Exchanges ConnectionStatus `json:"exchanges"`
}
