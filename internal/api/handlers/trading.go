package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/execution"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/pkg/logger"
)

// OrderStore is the order history surface the handlers need.
type OrderStore interface {
	RecentOrders(ctx context.Context, limit int) ([]contracts.Fill, error)
	TradeHistory(ctx context.Context, symbol string, since time.Time, limit int) ([]contracts.Fill, error)
	DeleteAll(ctx context.Context) error
}

// TradingHandler handles trade execution and history endpoints.
type TradingHandler struct {
	executor *execution.Executor
	account  *ledger.Account
	orders   OrderStore
	market   MarketData
	logger   *logger.Logger
}

// NewTradingHandler creates a new trading handler. orders may be nil
// when history persistence is disabled.
func NewTradingHandler(executor *execution.Executor, account *ledger.Account, orders OrderStore, market MarketData, log *logger.Logger) *TradingHandler {
	return &TradingHandler{
		executor: executor,
		account:  account,
		orders:   orders,
		market:   market,
		logger:   log,
	}
}

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
}

// PostTrade executes a simulated trade.
// POST /api/trade
func (h *TradingHandler) PostTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with symbol, side and quantity")
		return
	}

	intent := contracts.TradeIntent{
		Symbol:   strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Side:     contracts.Side(strings.ToLower(req.Side)),
		Quantity: req.Quantity,
	}

	quote, _, err := h.market.Quote(r.Context(), intent.Symbol)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	fill, err := h.executor.Execute(r.Context(), intent, quote)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    fill,
	})
}

// GetOrders returns recent fills, newest first.
// GET /api/orders?limit=50
func (h *TradingHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []contracts.Fill{},
			"count":   0,
		})
		return
	}

	fills, err := h.orders.RecentOrders(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get orders")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    fills,
		"count":   len(fills),
	})
}

// GetHistory returns trade history, optionally filtered by symbol.
// GET /api/history?symbol=BTC&days=30&limit=100
func (h *TradingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []contracts.Fill{},
			"count":   0,
		})
		return
	}

	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	if symbol != "" && !contracts.IsSupported(symbol) {
		respondTradeError(w, contracts.ErrUnsupportedSymbol)
		return
	}

	days := queryInt(r, "days", 30)
	since := time.Now().UTC().AddDate(0, 0, -days)

	fills, err := h.orders.TradeHistory(r.Context(), symbol, since, queryInt(r, "limit", 100))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get trade history")
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    fills,
		"count":   len(fills),
	})
}

type resetRequest struct {
	StartingCash decimal.Decimal `json:"starting_cash"`
}

// PostReset wipes the account back to a cash-only state. Omitting
// starting_cash keeps the previous funding amount.
// POST /api/reset
func (h *TradingHandler) PostReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.Body != nil {
		// An empty body means default funding
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.StartingCash.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_starting_cash", "starting_cash must not be negative")
		return
	}

	h.account.Reset(req.StartingCash)

	if h.orders != nil {
		if err := h.orders.DeleteAll(r.Context()); err != nil {
			h.logger.WithError(err).Error("Failed to clear order history on reset")
		}
	}

	h.logger.WithField("starting_cash", h.account.StartingCash().String()).Info("Account reset")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.account.Snapshot(),
	})
}
