package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cryptofolio/backend/internal/contracts"
)

// respondJSON writes a JSON response with status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// respondTradeError maps the typed trading and market-data errors to
// HTTP statuses. Unknown errors become 500.
func respondTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrUnsupportedSymbol):
		respondError(w, http.StatusNotFound, "unsupported_symbol", "symbol is not in the supported universe")
	case errors.Is(err, contracts.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive and side must be buy or sell")
	case errors.Is(err, contracts.ErrTradeTooSmall):
		respondError(w, http.StatusBadRequest, "trade_too_small", "trade notional is below the minimum")
	case errors.Is(err, contracts.ErrPositionLimit):
		respondError(w, http.StatusBadRequest, "position_limit", "trade would exceed the single-position limit")
	case errors.Is(err, contracts.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_funds", "not enough cash for this trade")
	case errors.Is(err, contracts.ErrInsufficientPosition):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_position", "not enough holdings for this trade")
	case errors.Is(err, contracts.ErrPriceUnavailable), errors.Is(err, contracts.ErrUpstreamTimeout):
		respondError(w, http.StatusServiceUnavailable, "price_unavailable", "market data is currently unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
