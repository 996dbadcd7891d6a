package domain

// ReferenceUnit is the stable unit raw exchange prices are quoted in.
const ReferenceUnit = "USDT"

type CurrencyBasis struct {
	Code         string `json:"code"`
	Glyph        string `json:"symbol"`
	Label        string `json:"label"`
	IsStablecoin bool   `json:"isStablecoin"`
}

var SupportedCurrencies = []CurrencyBasis{
	{Code: "USDT", Glyph: "₮", Label: "Tether", IsStablecoin: true},
	{Code: "USDC", Glyph: "₵", Label: "USD Coin", IsStablecoin: true},
	{Code: "BTC", Glyph: "₿", Label: "Bitcoin"},
	{Code: "ETH", Glyph: "Ξ", Label: "Ethereum"},
	{Code: "SOL", Glyph: "S", Label: "Solana"},
	{Code: "BNB", Glyph: "B", Label: "BNB"},
}

func DefaultCurrency() CurrencyBasis {
	return SupportedCurrencies[0]
}

func LookupCurrency(code string) (CurrencyBasis, error) {
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return c, nil
		}
	}
	return CurrencyBasis{}, ErrUnsupportedCurrency
}
