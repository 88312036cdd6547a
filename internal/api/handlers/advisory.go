package handlers

import (
	"net/http"

	"github.com/cryptofolio/backend/internal/advisor"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/internal/valuation"
	"github.com/cryptofolio/backend/pkg/logger"
)

// AdvisoryHandler handles the rule-based recommendation endpoint.
type AdvisoryHandler struct {
	advisor *advisor.Advisor
	account *ledger.Account
	market  MarketData
	symbol  string
	logger  *logger.Logger
}

// NewAdvisoryHandler creates a new advisory handler.
func NewAdvisoryHandler(adv *advisor.Advisor, account *ledger.Account, market MarketData, focusSymbol string, log *logger.Logger) *AdvisoryHandler {
	if focusSymbol == "" {
		focusSymbol = "BTC"
	}
	return &AdvisoryHandler{
		advisor: adv,
		account: account,
		market:  market,
		symbol:  focusSymbol,
		logger:  log,
	}
}

// GetAdvisory returns a recommendation with its full reasoning chain.
// GET /api/advisory
func (h *AdvisoryHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quotes, degraded, err := h.market.Quotes(ctx, nil)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	articles, err := h.market.News(ctx, h.symbol, 10)
	if err != nil {
		// Advisory still works on prices alone
		h.logger.WithError(err).Warn("News unavailable for advisory")
		articles = nil
		degraded = true
	}

	snapshot := valuation.Value(h.account.Snapshot(), quotes)

	advisory, err := h.advisor.Advise(ctx, snapshot, quotes[h.symbol], articles)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     advisory,
		"degraded": degraded,
	})
}
