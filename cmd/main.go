package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/axionnode/CryptoRadar/config"
	"github.com/axionnode/CryptoRadar/internal/adapters/exchange"
	httpserver "github.com/axionnode/CryptoRadar/internal/adapters/handlers/http"
	"github.com/axionnode/CryptoRadar/internal/adapters/handlers/http/handler"
	"github.com/axionnode/CryptoRadar/internal/adapters/llm/gemini"
	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/service"
	"github.com/axionnode/CryptoRadar/internal/core/service/insight"
	deps "github.com/axionnode/CryptoRadar/pkg/config"
)

func init() {
	initialLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(initialLogger)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	d, err := deps.NewDependencies(
		ctx,
		deps.WithLogger(cfg.Server.LogLvl),
		storageOption(cfg.Storage),
	)
	if err != nil {
		slog.Error("failed to load dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer d.Close()
	logger := d.Logger

	exchanges, err := exchange.Build(exchangeOptions(cfg.Exchanges), logger)
	if err != nil {
		logger.Error("failed to build exchange feeds", slog.Any("error", err))
		os.Exit(1)
	}

	market := service.NewMarketService(service.NewStore(), exchanges, logger)
	market.Start()
	defer market.Stop()

	gen, err := gemini.New(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
	if err != nil {
		logger.Error("failed to create text generator", slog.Any("error", err))
		os.Exit(1)
	}

	retry := insight.RetryPolicy{
		MaxAttempts:  cfg.AI.MaxAttempts,
		InitialDelay: cfg.AI.InitialBackoff.Std(),
	}
	analysis := insight.NewAnalysisPipeline(gen, d.Store, market, insight.Options{
		TTL:      cfg.AI.AnalysisCacheTTL.Std(),
		Interval: cfg.AI.AnalysisInterval.Std(),
		Retry:    retry,
	}, logger)
	news := insight.NewNewsPipeline(gen, d.Store, insight.Options{
		TTL:      cfg.AI.NewsCacheTTL.Std(),
		Interval: cfg.AI.NewsInterval.Std(),
		Retry:    retry,
	}, logger)

	watchlist := service.NewWatchlist(ctx, d.Store, logger)

	srv := httpserver.NewServer(
		logger,
		handler.NewMarketHandler(logger, market, d.Store, watchlist),
		handler.NewInsightHandler(logger, analysis, news),
		handler.NewWatchlistHandler(logger, watchlist),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		news.Run(ctx)
	}()

	run(ctx, cfg, srv)
	wg.Wait()
}

func storageOption(s config.Storage) deps.Option {
	switch s.Backend {
	case config.StorageRedis:
		return deps.WithRedis(s.Redis.Addr, s.Redis.Password, s.Redis.DB)
	case config.StoragePostgres:
		return deps.WithPostgres(
			s.Postgres.User,
			s.Postgres.Pass,
			s.Postgres.Host,
			s.Postgres.Port,
			s.Postgres.DBName,
		)
	default:
		return deps.WithSQLite(s.SQLite.Path)
	}
}

func exchangeOptions(e config.Exchanges) map[domain.Exchange]exchange.Options {
	reconnect := exchange.ReconnectPolicy{
		Enabled:  e.ReconnectPolicy == config.ReconnectBackoff,
		MaxDelay: e.ReconnectMaxDelay.Std(),
	}
	base := func(url string) exchange.Options {
		return exchange.Options{
			URL:          url,
			PingInterval: e.PingInterval.Std(),
			Reconnect:    reconnect,
		}
	}

	return map[domain.Exchange]exchange.Options{
		domain.Binance:  base(e.BinanceURL),
		domain.Coinbase: base(e.CoinbaseURL),
		domain.OKX:      base(e.OKXURL),
	}
}

func run(ctx context.Context, cfg *config.Config, srv http.Handler) {
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error listening and serving", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("Gracefully shutting down...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Info("error shutting down http server", "error", err)
	}
}
