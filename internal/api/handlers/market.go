package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/indicators"
	"github.com/cryptofolio/backend/pkg/logger"
)

// MarketData is the market-data surface the handlers need.
type MarketData interface {
	Quotes(ctx context.Context, symbols []string) (contracts.QuoteSet, bool, error)
	Quote(ctx context.Context, symbol string) (contracts.Quote, bool, error)
	News(ctx context.Context, symbol string, limit int) ([]contracts.Article, error)
	Overview(ctx context.Context) (contracts.MarketOverview, error)
	DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// MarketHandler handles market data API endpoints.
type MarketHandler struct {
	market MarketData
	logger *logger.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(market MarketData, log *logger.Logger) *MarketHandler {
	return &MarketHandler{market: market, logger: log}
}

// GetPrices returns current quotes for the universe.
// GET /api/crypto/prices?symbols=BTC,ETH
func (h *MarketHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, symbol := range strings.Split(raw, ",") {
			symbol = strings.ToUpper(strings.TrimSpace(symbol))
			if symbol == "" {
				continue
			}
			if !contracts.IsSupported(symbol) {
				respondTradeError(w, contracts.ErrUnsupportedSymbol)
				return
			}
			symbols = append(symbols, symbol)
		}
	}

	quotes, degraded, err := h.market.Quotes(ctx, symbols)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get prices")
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     quotes,
		"degraded": degraded,
	})
}

// GetPrice returns the current quote for one symbol.
// GET /api/crypto/prices/{symbol}
func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	quote, degraded, err := h.market.Quote(r.Context(), symbol)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     quote,
		"degraded": degraded,
	})
}

// GetNews returns scored news articles.
// GET /api/crypto/news?symbol=BTC&limit=10
func (h *MarketHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	limit := queryInt(r, "limit", 20)

	articles, err := h.market.News(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get news")
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    articles,
		"count":   len(articles),
	})
}

// GetOverview returns the aggregated market dashboard view.
// GET /api/market/overview
func (h *MarketHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.market.Overview(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build market overview")
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    overview,
	})
}

// GetIndicators returns technical indicators for one symbol.
// GET /api/market/indicators/{symbol}?days=90
func (h *MarketHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	days := queryInt(r, "days", 90)

	closes, err := h.market.DailyCloses(r.Context(), symbol, days)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	analysis, err := indicators.Compute(symbol, closes)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Indicator computation failed")
		respondError(w, http.StatusUnprocessableEntity, "insufficient_history", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    analysis,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return fallback
}
