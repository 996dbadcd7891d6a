package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
)

const (
	DefaultNewsTTL      = 20 * time.Minute
	DefaultNewsInterval = 15 * time.Minute
)

const newsPrompt = `Find the 5 most recent and important cryptocurrency news headlines.
Focus on major events from sources like Cointelegraph, CoinDesk and The Block.
Return a JSON array of objects with keys "title", "url", "source" and "time".
Only return the JSON data.`

var newsSchema = port.Schema{
	Type: port.SchemaArray,
	Items: &port.Schema{
		Type: port.SchemaObject,
		Properties: map[string]port.Schema{
			"title":  {Type: port.SchemaString},
			"url":    {Type: port.SchemaString},
			"source": {Type: port.SchemaString},
			"time":   {Type: port.SchemaString},
		},
		Required: []string{"title", "url", "source", "time"},
	},
}

// NewNewsPipeline builds the news digest pipeline. Empty digests are returned
// but never overwrite the cache.
func NewNewsPipeline(
	gen port.TextGenerator,
	kv port.KVStore,
	opts Options,
	logger *slog.Logger,
) *Pipeline[[]domain.NewsItem] {
	opts = withDefaults(opts, DefaultNewsTTL, DefaultNewsInterval)

	return &Pipeline[[]domain.NewsItem]{
		name:     "news",
		cache:    NewCache(kv, NewsCacheKey, opts.TTL, opts.Now, validateNews, logger),
		retry:    opts.Retry,
		interval: opts.Interval,
		now:      opts.Now,
		fetch: func(ctx context.Context) ([]domain.NewsItem, error) {
			return fetchNews(ctx, gen)
		},
		shouldCache: func(items []domain.NewsItem) bool { return len(items) > 0 },
		fallback:    func() []domain.NewsItem { return []domain.NewsItem{} },
		logger:      logger,
	}
}

func fetchNews(ctx context.Context, gen port.TextGenerator) ([]domain.NewsItem, error) {
	raw, err := gen.GenerateJSON(ctx, newsPrompt, newsSchema, true)
	if err != nil {
		return nil, err
	}

	var items []domain.NewsItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	if err := validateNews(items); err != nil {
		return nil, err
	}
	return items, nil
}

func validateNews(items []domain.NewsItem) error {
	if items == nil {
		return fmt.Errorf("%w: news digest is not a list", domain.ErrMalformedResponse)
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
