package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
	"github.com/axionnode/CryptoRadar/internal/core/service"
)

const (
	DefaultAnalysisTTL      = 10 * time.Minute
	DefaultAnalysisInterval = 10 * time.Minute
)

type SnapshotSource interface {
	Snapshot() domain.AggregatedState
}

var analysisSchema = port.Schema{
	Type: port.SchemaObject,
	Properties: map[string]port.Schema{
		"summary": {Type: port.SchemaString},
		"sentiment": {
			Type: port.SchemaString,
			Enum: []string{string(domain.Bullish), string(domain.Bearish), string(domain.Neutral)},
		},
		"keyInsights": {
			Type:  port.SchemaArray,
			Items: &port.Schema{Type: port.SchemaString},
		},
	},
	Required: []string{"summary", "sentiment", "keyInsights"},
}

func NewAnalysisPipeline(
	gen port.TextGenerator,
	kv port.KVStore,
	src SnapshotSource,
	opts Options,
	logger *slog.Logger,
) *Pipeline[domain.AIAnalysis] {
	opts = withDefaults(opts, DefaultAnalysisTTL, DefaultAnalysisInterval)

	return &Pipeline[domain.AIAnalysis]{
		name:     "analysis",
		cache:    NewCache(kv, AnalysisCacheKey, opts.TTL, opts.Now, domain.AIAnalysis.Validate, logger),
		retry:    opts.Retry,
		interval: opts.Interval,
		now:      opts.Now,
		fetch: func(ctx context.Context) (domain.AIAnalysis, error) {
			return fetchAnalysis(ctx, gen, src.Snapshot())
		},
		shouldCache: func(domain.AIAnalysis) bool { return true },
		fallback:    domain.DefaultAnalysis,
		logger:      logger,
	}
}

func analysisPrompt(state domain.AggregatedState) string {
	avg := service.BaseAverages(state)
	return fmt.Sprintf(`Give a short market commentary based on these live cryptocurrency prices:
BTC average: $%.2f
ETH average: $%.2f

Classify the market sentiment as Bullish, Bearish or Neutral and provide three key insights.
Keep the tone professional and concise.`, avg[domain.BTC], avg[domain.ETH])
}

func fetchAnalysis(ctx context.Context, gen port.TextGenerator, state domain.AggregatedState) (domain.AIAnalysis, error) {
	raw, err := gen.GenerateJSON(ctx, analysisPrompt(state), analysisSchema, false)
	if err != nil {
		return domain.AIAnalysis{}, err
	}

	var a domain.AIAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return domain.AIAnalysis{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if err := a.Validate(); err != nil {
		return domain.AIAnalysis{}, err
	}
	return a, nil
}

func withDefaults(opts Options, ttl, interval time.Duration) Options {
	if opts.TTL <= 0 {
		opts.TTL = ttl
	}
	if opts.Interval <= 0 {
		opts.Interval = interval
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Retry.InitialDelay <= 0 {
		opts.Retry.InitialDelay = DefaultInitialDelay
	}
	if opts.Retry.Sleep == nil {
		opts.Retry.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}
