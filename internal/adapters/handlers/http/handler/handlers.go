package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"
	jsonresponse "github.com/axionnode/CryptoRadar/pkg/JSONResponse"

	"github.com/gin-gonic/gin"
)

// WatchSet is the read side of the watchlist used to flag watched assets.
type WatchSet interface {
	Contains(sym domain.AssetSymbol) bool
	List() []domain.AssetSymbol
	Toggle(ctx context.Context, sym domain.AssetSymbol) (bool, error)
}

type MarketHandler struct {
	MarketService port.MarketServicePort
	storage       port.KVStore
	watchlist     WatchSet
	logger        *slog.Logger
}

func NewMarketHandler(
	logger *slog.Logger,
	marketService port.MarketServicePort,
	storage port.KVStore,
	watchlist WatchSet,
) *MarketHandler {
	return &MarketHandler{
		MarketService: marketService,
		storage:       storage,
		watchlist:     watchlist,
		logger:        logger,
	}
}

func (h *MarketHandler) Health(c *gin.Context) {
	storage := "none"
	if h.storage != nil {
		storage = h.storage.Ping(c.Request.Context())
	}

	jsonresponse.WriteResponse(c, http.StatusOK, domain.HealthResponse{
		Status:    "ok",
		Storage:   storage,
		Exchanges: h.MarketService.Status(),
	})
}

func (h *MarketHandler) Assets(c *gin.Context) {
	out := make([]domain.AssetInfo, 0, len(domain.Assets))
	for _, a := range domain.Assets {
		out = append(out, domain.Info(a))
	}
	jsonresponse.WriteResponse(c, http.StatusOK, out)
}

func (h *MarketHandler) Currencies(c *gin.Context) {
	jsonresponse.WriteResponse(c, http.StatusOK, gin.H{
		"currencies": domain.SupportedCurrencies,
		"selected":   h.MarketService.SelectedCurrency(),
	})
}

func (h *MarketHandler) SelectCurrency(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	basis, err := h.MarketService.SelectCurrency(code)
	if err != nil {
		h.logger.Warn("Rejected currency selection", slog.String("code", code), slog.Any("error", err))
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	jsonresponse.WriteResponse(c, http.StatusOK, basis)
}

func (h *MarketHandler) Prices(c *gin.Context) {
	code := strings.ToUpper(c.Query("currency"))

	view, err := h.MarketService.Prices(code)
	if err != nil {
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	jsonresponse.WriteResponse(c, http.StatusOK, newPricingView(view, h.watched))
}

func (h *MarketHandler) Price(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	if symbol == "" {
		h.logger.Error("Symbol not provided in request")
		jsonresponse.WriteError(c, jsonresponse.WrapError(
			jsonresponse.ErrInvalidInput,
			"Symbol must be provided",
			http.StatusBadRequest,
		))
		return
	}

	asset, err := domain.ParseAsset(symbol)
	if err != nil {
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	view, err := h.MarketService.Prices(strings.ToUpper(c.Query("currency")))
	if err != nil {
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	quote, ok := view.Asset(asset)
	if !ok {
		jsonresponse.WriteError(c, jsonresponse.FromDomain(domain.ErrNotFound))
		return
	}

	jsonresponse.WriteResponse(c, http.StatusOK, newAssetQuoteView(quote, view.Basis, h.watched(asset)))
	h.logger.Debug("Successfully retrieved price", slog.String("symbol", symbol), slog.Int("sources", quote.Sources))
}

func (h *MarketHandler) Status(c *gin.Context) {
	jsonresponse.WriteResponse(c, http.StatusOK, h.MarketService.Status())
}

func (h *MarketHandler) watched(sym domain.AssetSymbol) bool {
	return h.watchlist != nil && h.watchlist.Contains(sym)
}

type WatchlistHandler struct {
	watchlist WatchSet
	logger    *slog.Logger
}

func NewWatchlistHandler(logger *slog.Logger, watchlist WatchSet) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, logger: logger}
}

func (h *WatchlistHandler) List(c *gin.Context) {
	jsonresponse.WriteResponse(c, http.StatusOK, gin.H{"symbols": h.watchlist.List()})
}

func (h *WatchlistHandler) Toggle(c *gin.Context) {
	sym, err := domain.ParseAsset(strings.ToUpper(c.Param("symbol")))
	if err != nil {
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	watched, err := h.watchlist.Toggle(c.Request.Context(), sym)
	if err != nil {
		h.logger.Error("Failed to toggle watchlist", slog.String("symbol", string(sym)), slog.Any("error", err))
		jsonresponse.WriteError(c, jsonresponse.FromDomain(err))
		return
	}

	jsonresponse.WriteResponse(c, http.StatusOK, gin.H{
		"symbol":  sym,
		"watched": watched,
		"symbols": h.watchlist.List(),
	})
}
