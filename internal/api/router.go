package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cryptofolio/backend/internal/api/handlers"
	"github.com/cryptofolio/backend/pkg/logger"
)

// Handlers bundles the endpoint handlers for router wiring.
type Handlers struct {
	Market    *handlers.MarketHandler
	Portfolio *handlers.PortfolioHandler
	Trading   *handlers.TradingHandler
	Advisory  *handlers.AdvisoryHandler
	System    *handlers.SystemHandler
	Hub       *Hub
}

// NewRouter creates and configures the HTTP router.
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Realtime quote stream
	if h.Hub != nil {
		r.HandleFunc("/ws/prices", h.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Market data endpoints
	api.HandleFunc("/crypto/prices", h.Market.GetPrices).Methods("GET")
	api.HandleFunc("/crypto/prices/{symbol}", h.Market.GetPrice).Methods("GET")
	api.HandleFunc("/crypto/news", h.Market.GetNews).Methods("GET")
	api.HandleFunc("/market/overview", h.Market.GetOverview).Methods("GET")
	api.HandleFunc("/market/indicators/{symbol}", h.Market.GetIndicators).Methods("GET")

	// Portfolio endpoints
	api.HandleFunc("/portfolio", h.Portfolio.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/analysis", h.Portfolio.GetAnalysis).Methods("GET")
	api.HandleFunc("/portfolio/rebalance", h.Portfolio.GetRebalance).Methods("GET")

	// Trading endpoints
	api.HandleFunc("/trade", h.Trading.PostTrade).Methods("POST")
	api.HandleFunc("/orders", h.Trading.GetOrders).Methods("GET")
	api.HandleFunc("/history", h.Trading.GetHistory).Methods("GET")
	api.HandleFunc("/reset", h.Trading.PostReset).Methods("POST")

	// Advisory endpoint
	api.HandleFunc("/advisory", h.Advisory.GetAdvisory).Methods("GET")

	// System endpoints
	api.HandleFunc("/supported", h.System.GetSupported).Methods("GET")
	api.HandleFunc("/status", h.System.GetStatus).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware)

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "cryptofolio-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the dashboard frontend to call the API from
// another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
