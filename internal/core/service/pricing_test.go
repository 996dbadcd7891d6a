package service

import (
	"math"
	"testing"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

func stateWith(records ...domain.PriceRecord) domain.AggregatedState {
	s := domain.NewAggregatedState()
	for _, r := range records {
		s[r.Symbol][r.Exchange] = r
	}
	return s
}

func rec(ex domain.Exchange, sym domain.AssetSymbol, price float64) domain.PriceRecord {
	return domain.PriceRecord{Exchange: ex, Symbol: sym, Price: price, ObservedAt: time.Unix(1700000000, 0)}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9*math.Max(1, math.Abs(b))
}

func TestBaseAverages(t *testing.T) {
	state := stateWith(
		rec(domain.Binance, domain.BTC, 64000),
		rec(domain.Coinbase, domain.BTC, 64100),
		rec(domain.OKX, domain.BTC, 63900),
		rec(domain.Binance, domain.ETH, 3000),
		rec(domain.Coinbase, domain.ETH, 0),
	)

	avg := BaseAverages(state)

	if !approx(avg[domain.BTC], 64000) {
		t.Errorf("BTC average = %v, want 64000", avg[domain.BTC])
	}
	if !approx(avg[domain.ETH], 3000) {
		t.Errorf("ETH average = %v, want 3000 (zero price ignored)", avg[domain.ETH])
	}
	if avg[domain.SOL] != 0 {
		t.Errorf("SOL average = %v, want 0 with no sources", avg[domain.SOL])
	}
	if len(avg) != len(domain.Assets) {
		t.Errorf("got %d averages, want %d", len(avg), len(domain.Assets))
	}
}

func TestConversionRate(t *testing.T) {
	averages := map[domain.AssetSymbol]float64{domain.BTC: 50000, domain.ETH: 0}

	tests := []struct {
		name string
		code string
		want float64
	}{
		{name: "stablecoin", code: "USDT", want: 1},
		{name: "other stablecoin", code: "USDC", want: 1},
		{name: "crypto basis", code: "BTC", want: 1.0 / 50000},
		{name: "basis without sources", code: "ETH", want: 0},
		{name: "basis missing entirely", code: "SOL", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis, err := domain.LookupCurrency(tt.code)
			if err != nil {
				t.Fatal(err)
			}
			got := ConversionRate(basis, averages)
			if !approx(got, tt.want) {
				t.Errorf("ConversionRate(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestPrice_DiffsAgainstAverage(t *testing.T) {
	state := stateWith(
		rec(domain.Binance, domain.BTC, 64000),
		rec(domain.Coinbase, domain.BTC, 64100),
		rec(domain.OKX, domain.BTC, 63900),
	)

	view := Price(state, domain.DefaultCurrency())

	if view.Rate != 1 || !view.RateAvailable {
		t.Fatalf("rate = %v available=%v, want 1 true", view.Rate, view.RateAvailable)
	}
	if len(view.Assets) != len(domain.Assets) {
		t.Fatalf("got %d assets, want %d", len(view.Assets), len(domain.Assets))
	}

	btc, ok := view.Asset(domain.BTC)
	if !ok {
		t.Fatal("BTC missing from view")
	}
	if btc.Sources != 3 || !approx(btc.DisplayAverage, 64000) {
		t.Errorf("BTC sources=%d avg=%v", btc.Sources, btc.DisplayAverage)
	}

	want := map[domain.Exchange]struct{ diff, pct float64 }{
		domain.Binance:  {0, 0},
		domain.Coinbase: {100, 0.15625},
		domain.OKX:      {-100, -0.15625},
	}
	for _, q := range btc.Exchanges {
		w := want[q.Exchange]
		if !approx(q.Diff, w.diff) || !approx(q.DiffPercent, w.pct) {
			t.Errorf("%s diff=%v pct=%v, want %v %v", q.Exchange, q.Diff, q.DiffPercent, w.diff, w.pct)
		}
	}
}

func TestPrice_CryptoBasis(t *testing.T) {
	state := stateWith(
		rec(domain.Binance, domain.BTC, 60000),
		rec(domain.Binance, domain.ETH, 3000),
	)
	basis, _ := domain.LookupCurrency("BTC")

	view := Price(state, basis)

	eth, _ := view.Asset(domain.ETH)
	if !approx(eth.DisplayAverage, 0.05) {
		t.Errorf("ETH in BTC = %v, want 0.05", eth.DisplayAverage)
	}
	btc, _ := view.Asset(domain.BTC)
	if !approx(btc.DisplayAverage, 1) {
		t.Errorf("BTC in BTC = %v, want 1", btc.DisplayAverage)
	}
}

func TestPrice_UnavailableBasisStaysFinite(t *testing.T) {
	state := stateWith(rec(domain.Binance, domain.BTC, 64000))
	basis, _ := domain.LookupCurrency("SOL")

	view := Price(state, basis)

	if view.Rate != 0 || view.RateAvailable {
		t.Fatalf("rate = %v available=%v, want 0 false", view.Rate, view.RateAvailable)
	}
	for _, a := range view.Assets {
		if math.IsNaN(a.DisplayAverage) || math.IsInf(a.DisplayAverage, 0) {
			t.Errorf("%s display average not finite: %v", a.Symbol, a.DisplayAverage)
		}
		for _, q := range a.Exchanges {
			for _, v := range []float64{q.DisplayPrice, q.Diff, q.DiffPercent} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s/%s value not finite: %v", a.Symbol, q.Exchange, v)
				}
			}
			if q.DiffPercent != 0 {
				t.Errorf("diffPercent = %v, want 0 when the average is 0", q.DiffPercent)
			}
		}
	}
}

func TestPrice_NoSources(t *testing.T) {
	view := Price(domain.NewAggregatedState(), domain.DefaultCurrency())

	for _, a := range view.Assets {
		if a.Sources != 0 || a.DisplayAverage != 0 || len(a.Exchanges) != 0 {
			t.Errorf("%s: unexpected quote %+v", a.Symbol, a)
		}
	}
}
