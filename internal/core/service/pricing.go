package service

import "github.com/axionnode/CryptoRadar/internal/core/domain"

// BaseAverages returns the mean positive price of every asset in the reference
// unit. Assets without live sources average to 0.
func BaseAverages(state domain.AggregatedState) map[domain.AssetSymbol]float64 {
	out := make(map[domain.AssetSymbol]float64, len(domain.Assets))
	for _, s := range domain.Assets {
		out[s] = average(state[s])
	}
	return out
}

func average(records map[domain.Exchange]domain.PriceRecord) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if r.Price > 0 {
			sum += r.Price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ConversionRate converts reference-unit prices into basis units. A basis whose
// own average is unavailable yields 0 rather than an infinite rate.
func ConversionRate(basis domain.CurrencyBasis, averages map[domain.AssetSymbol]float64) float64 {
	if basis.IsStablecoin {
		return 1
	}
	base := averages[domain.AssetSymbol(basis.Code)]
	if base > 0 {
		return 1 / base
	}
	return 0
}

// Price derives the full pricing view of state in the given basis.
func Price(state domain.AggregatedState, basis domain.CurrencyBasis) domain.PricingView {
	averages := BaseAverages(state)
	rate := ConversionRate(basis, averages)

	view := domain.PricingView{
		Basis:         basis,
		Rate:          rate,
		RateAvailable: rate != 0,
		Assets:        make([]domain.AssetQuote, 0, len(domain.Assets)),
	}

	for _, s := range domain.Assets {
		displayAvg := averages[s] * rate
		q := domain.AssetQuote{
			Symbol:         s,
			BaseAverage:    averages[s],
			DisplayAverage: displayAvg,
			Exchanges:      make([]domain.ExchangeQuote, 0, len(domain.Exchanges)),
		}

		for _, ex := range domain.Exchanges {
			r, ok := state[s][ex]
			if !ok {
				continue
			}
			if r.Price > 0 {
				q.Sources++
			}

			display := r.Price * rate
			diff := display - displayAvg
			var diffPct float64
			if displayAvg != 0 {
				diffPct = diff / displayAvg * 100
			}

			q.Exchanges = append(q.Exchanges, domain.ExchangeQuote{
				Exchange:     ex,
				Price:        r.Price,
				DisplayPrice: display,
				Diff:         diff,
				DiffPercent:  diffPct,
				ObservedAt:   r.ObservedAt,
			})
		}

		view.Assets = append(view.Assets, q)
	}

	return view
}
