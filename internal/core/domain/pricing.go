package domain

import "time"

type ExchangeQuote struct {
	Exchange     Exchange  `json:"exchange"`
	Price        float64   `json:"price"`
	DisplayPrice float64   `json:"displayPrice"`
	Diff         float64   `json:"diff"`
	DiffPercent  float64   `json:"diffPercent"`
	ObservedAt   time.Time `json:"observedAt"`
}

type AssetQuote struct {
	Symbol         AssetSymbol     `json:"symbol"`
	BaseAverage    float64         `json:"baseAverage"`
	DisplayAverage float64         `json:"displayAverage"`
	Sources        int             `json:"sources"`
	Exchanges      []ExchangeQuote `json:"exchanges"`
}

// PricingView is the derived, display-ready state for one currency basis.
type PricingView struct {
	Basis         CurrencyBasis `json:"basis"`
	Rate          float64       `json:"rate"`
	RateAvailable bool          `json:"rateAvailable"`
	Assets        []AssetQuote  `json:"assets"`
}

func (v PricingView) Asset(s AssetSymbol) (AssetQuote, bool) {
	for _, q := range v.Assets {
		if q.Symbol == s {
			return q, true
		}
	}
	return AssetQuote{}, false
}
