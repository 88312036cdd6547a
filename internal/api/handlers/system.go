package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/pkg/logger"
)

// SystemHandler handles service status endpoints.
type SystemHandler struct {
	account      *ledger.Account
	env          string
	started      time.Time
	dbPing       func(ctx context.Context) error
	redisEnabled bool
	logger       *logger.Logger
}

// NewSystemHandler creates a new system handler. dbPing may be nil
// when the database is not configured.
func NewSystemHandler(account *ledger.Account, env string, dbPing func(ctx context.Context) error, redisEnabled bool, log *logger.Logger) *SystemHandler {
	return &SystemHandler{
		account:      account,
		env:          env,
		started:      time.Now().UTC(),
		dbPing:       dbPing,
		redisEnabled: redisEnabled,
		logger:       log,
	}
}

// GetSupported returns the tradable asset universe.
// GET /api/supported
func (h *SystemHandler) GetSupported(w http.ResponseWriter, r *http.Request) {
	assets := make([]contracts.Asset, 0)
	for _, symbol := range contracts.SupportedSymbols() {
		if asset, ok := contracts.LookupAsset(symbol); ok {
			assets = append(assets, asset)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    assets,
		"count":   len(assets),
	})
}

// GetStatus returns service health and account summary.
// GET /api/status
func (h *SystemHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	database := "disabled"
	if h.dbPing != nil {
		database = "ok"
		if err := h.dbPing(r.Context()); err != nil {
			h.logger.WithError(err).Warn("Database ping failed")
			database = "unavailable"
		}
	}

	redisState := "disabled"
	if h.redisEnabled {
		redisState = "ok"
	}

	snapshot := h.account.Snapshot()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"service":        "cryptofolio-api",
			"env":            h.env,
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
			"database":       database,
			"redis":          redisState,
			"cash":           snapshot.Cash,
			"starting_cash":  snapshot.StartingCash,
			"position_count": len(snapshot.Positions),
			"timestamp":      time.Now().UTC(),
		},
	})
}
