package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/service/insight"
	jsonresponse "github.com/axionnode/CryptoRadar/pkg/JSONResponse"

	"github.com/gin-gonic/gin"
)

type InsightSource[T any] interface {
	Latest() (insight.Result[T], bool)
	Refresh(ctx context.Context) (insight.Result[T], bool)
}

type InsightHandler struct {
	analysis InsightSource[domain.AIAnalysis]
	news     InsightSource[[]domain.NewsItem]
	logger   *slog.Logger
}

func NewInsightHandler(
	logger *slog.Logger,
	analysis InsightSource[domain.AIAnalysis],
	news InsightSource[[]domain.NewsItem],
) *InsightHandler {
	return &InsightHandler{analysis: analysis, news: news, logger: logger}
}

func (h *InsightHandler) Analysis(c *gin.Context) {
	res, _ := h.analysis.Latest()
	jsonresponse.WriteResponse(c, http.StatusOK, res)
}

func (h *InsightHandler) RefreshAnalysis(c *gin.Context) {
	res, started := h.analysis.Refresh(c.Request.Context())
	writeRefresh(c, h.logger, "analysis", res, started)
}

func (h *InsightHandler) News(c *gin.Context) {
	res, _ := h.news.Latest()
	jsonresponse.WriteResponse(c, http.StatusOK, res)
}

func (h *InsightHandler) RefreshNews(c *gin.Context) {
	res, started := h.news.Refresh(c.Request.Context())
	writeRefresh(c, h.logger, "news", res, started)
}

// writeRefresh answers 202 when another refresh already owns the pipeline.
func writeRefresh[T any](c *gin.Context, logger *slog.Logger, name string, res insight.Result[T], started bool) {
	code := http.StatusOK
	if !started {
		code = http.StatusAccepted
		logger.Debug("refresh skipped, already in flight", slog.String("pipeline", name))
	}
	jsonresponse.WriteResponse(c, code, gin.H{
		"started": started,
		"result":  res,
	})
}
