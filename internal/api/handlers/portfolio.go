package handlers

import (
	"net/http"

	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/internal/rebalance"
	"github.com/cryptofolio/backend/internal/valuation"
	"github.com/cryptofolio/backend/pkg/logger"
)

// PortfolioHandler handles portfolio valuation endpoints.
type PortfolioHandler struct {
	account    *ledger.Account
	rebalancer *rebalance.Rebalancer
	market     MarketData
	logger     *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(account *ledger.Account, rebalancer *rebalance.Rebalancer, market MarketData, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		account:    account,
		rebalancer: rebalancer,
		market:     market,
		logger:     log,
	}
}

// GetPortfolio returns the current valuation snapshot.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	quotes, degraded, err := h.market.Quotes(r.Context(), nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get quotes for valuation")
		respondTradeError(w, err)
		return
	}

	snapshot := valuation.Value(h.account.Snapshot(), quotes)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     snapshot,
		"degraded": degraded || len(snapshot.StaleSymbols) > 0,
	})
}

// GetAnalysis returns the valuation plus allocation analytics.
// GET /api/portfolio/analysis
func (h *PortfolioHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	quotes, degraded, err := h.market.Quotes(r.Context(), nil)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	snapshot := valuation.Value(h.account.Snapshot(), quotes)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"valuation":             snapshot,
			"weights":               snapshot.PositionWeights(),
			"diversification_score": snapshot.DiversificationScore,
			"largest_position":      snapshot.LargestPosition,
		},
		"degraded": degraded || len(snapshot.StaleSymbols) > 0,
	})
}

// GetRebalance returns equal-weight rebalancing suggestions. The
// suggestions are advisory; nothing is executed here.
// GET /api/portfolio/rebalance
func (h *PortfolioHandler) GetRebalance(w http.ResponseWriter, r *http.Request) {
	quotes, degraded, err := h.market.Quotes(r.Context(), nil)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	snapshot := valuation.Value(h.account.Snapshot(), quotes)
	suggestions := h.rebalancer.Suggest(snapshot, quotes, nil)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     suggestions,
		"count":    len(suggestions),
		"degraded": degraded,
	})
}
