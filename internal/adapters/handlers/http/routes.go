package http

import (
	"github.com/axionnode/CryptoRadar/internal/adapters/handlers/http/handler"

	"github.com/gin-gonic/gin"
)

func addRoutes(
	r *gin.Engine,
	marketHandler *handler.MarketHandler,
	insightHandler *handler.InsightHandler,
	watchlistHandler *handler.WatchlistHandler,
) {
	r.GET("/health", marketHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/assets", marketHandler.Assets)
		api.GET("/currencies", marketHandler.Currencies)
		api.PUT("/currency/:code", marketHandler.SelectCurrency)
		api.GET("/prices", marketHandler.Prices)
		api.GET("/prices/:symbol", marketHandler.Price)
		api.GET("/status", marketHandler.Status)

		api.GET("/analysis", insightHandler.Analysis)
		api.POST("/analysis/refresh", insightHandler.RefreshAnalysis)
		api.GET("/news", insightHandler.News)
		api.POST("/news/refresh", insightHandler.RefreshNews)

		api.GET("/watchlist", watchlistHandler.List)
		api.POST("/watchlist/:symbol/toggle", watchlistHandler.Toggle)
	}
}
