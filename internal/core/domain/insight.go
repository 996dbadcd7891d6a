package domain

import "fmt"

type Sentiment string

const (
	Bullish Sentiment = "Bullish"
	Bearish Sentiment = "Bearish"
	Neutral Sentiment = "Neutral"
)

var Sentiments = []Sentiment{Bullish, Bearish, Neutral}

func (s Sentiment) Valid() bool {
	for _, v := range Sentiments {
		if v == s {
			return true
		}
	}
	return false
}

type AIAnalysis struct {
	Summary     string    `json:"summary"`
	Sentiment   Sentiment `json:"sentiment"`
	KeyInsights []string  `json:"keyInsights"`
}

// Validate enforces the structured-output contract of an analysis response.
func (a AIAnalysis) Validate() error {
	if a.Summary == "" {
		return fmt.Errorf("%w: empty summary", ErrMalformedResponse)
	}
	if !a.Sentiment.Valid() {
		return fmt.Errorf("%w: sentiment %q", ErrMalformedResponse, a.Sentiment)
	}
	if a.KeyInsights == nil {
		return fmt.Errorf("%w: missing keyInsights", ErrMalformedResponse)
	}
	return nil
}

// DefaultAnalysis is served when no analysis could be produced and nothing is cached.
func DefaultAnalysis() AIAnalysis {
	return AIAnalysis{
		Summary:   "AI quota has been reached or the connection is unstable. Please try again later.",
		Sentiment: Neutral,
		KeyInsights: []string{
			"Quota temporarily exhausted (429)",
			"Market data is still updating in real time",
			"Try a manual refresh in about 10 minutes",
		},
	}
}

type NewsItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Time   string `json:"time"`
}

func (n NewsItem) Validate() error {
	if n.Title == "" || n.URL == "" {
		return fmt.Errorf("%w: news item missing title or url", ErrMalformedResponse)
	}
	return nil
}
