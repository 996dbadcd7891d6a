package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/axionnode/CryptoRadar/internal/adapters/handlers/http/handler"

	"github.com/gin-gonic/gin"
)

func NewServer(
	logger *slog.Logger,
	marketHandler *handler.MarketHandler,
	insightHandler *handler.InsightHandler,
	watchlistHandler *handler.WatchlistHandler,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	addRoutes(r, marketHandler, insightHandler, watchlistHandler)

	var handler http.Handler = r

	return handler
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}
