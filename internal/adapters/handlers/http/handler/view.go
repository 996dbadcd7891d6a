package handler

import (
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"

	"github.com/shopspring/decimal"
)

const (
	stablePlaces  = 2
	cryptoPlaces  = 8
	percentPlaces = 3
)

type exchangeQuoteView struct {
	Exchange     domain.Exchange `json:"exchange"`
	Price        string          `json:"price"`
	DisplayPrice string          `json:"displayPrice"`
	Diff         string          `json:"diff"`
	DiffPercent  string          `json:"diffPercent"`
	ObservedAt   time.Time       `json:"observedAt"`
}

type assetQuoteView struct {
	Symbol         domain.AssetSymbol  `json:"symbol"`
	FullName       string              `json:"fullName"`
	Category       string              `json:"category"`
	BaseAverage    string              `json:"baseAverage"`
	DisplayAverage string              `json:"displayAverage"`
	Sources        int                 `json:"sources"`
	Watched        bool                `json:"watched"`
	Exchanges      []exchangeQuoteView `json:"exchanges"`
}

type pricingView struct {
	Basis         domain.CurrencyBasis `json:"basis"`
	Rate          string               `json:"rate"`
	RateAvailable bool                 `json:"rateAvailable"`
	Assets        []assetQuoteView     `json:"assets"`
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func displayPlaces(basis domain.CurrencyBasis) int32 {
	if basis.IsStablecoin {
		return stablePlaces
	}
	return cryptoPlaces
}

func newAssetQuoteView(q domain.AssetQuote, basis domain.CurrencyBasis, watched bool) assetQuoteView {
	places := displayPlaces(basis)
	info := domain.Info(q.Symbol)

	out := assetQuoteView{
		Symbol:         q.Symbol,
		FullName:       info.FullName,
		Category:       info.Category,
		BaseAverage:    fixed(q.BaseAverage, stablePlaces),
		DisplayAverage: fixed(q.DisplayAverage, places),
		Sources:        q.Sources,
		Watched:        watched,
		Exchanges:      make([]exchangeQuoteView, 0, len(q.Exchanges)),
	}
	for _, e := range q.Exchanges {
		out.Exchanges = append(out.Exchanges, exchangeQuoteView{
			Exchange:     e.Exchange,
			Price:        fixed(e.Price, stablePlaces),
			DisplayPrice: fixed(e.DisplayPrice, places),
			Diff:         fixed(e.Diff, places),
			DiffPercent:  fixed(e.DiffPercent, percentPlaces),
			ObservedAt:   e.ObservedAt,
		})
	}
	return out
}

func newPricingView(v domain.PricingView, watched func(domain.AssetSymbol) bool) pricingView {
	out := pricingView{
		Basis:         v.Basis,
		Rate:          fixed(v.Rate, cryptoPlaces),
		RateAvailable: v.RateAvailable,
		Assets:        make([]assetQuoteView, 0, len(v.Assets)),
	}
	for _, q := range v.Assets {
		out.Assets = append(out.Assets, newAssetQuoteView(q, v.Basis, watched(q.Symbol)))
	}
	return out
}
