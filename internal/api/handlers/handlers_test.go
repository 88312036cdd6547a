package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/advisor"
	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/execution"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/internal/rebalance"
	"github.com/cryptofolio/backend/pkg/logger"
)

type stubMarket struct {
	quotes   contracts.QuoteSet
	articles []contracts.Article
	closes   []float64
	err      error
}

func (s *stubMarket) Quotes(_ context.Context, symbols []string) (contracts.QuoteSet, bool, error) {
	if s.err != nil {
		return nil, true, s.err
	}
	if len(symbols) == 0 {
		return s.quotes, false, nil
	}
	result := make(contracts.QuoteSet)
	for _, symbol := range symbols {
		if quote, ok := s.quotes[symbol]; ok {
			result[symbol] = quote
		}
	}
	return result, false, nil
}

func (s *stubMarket) Quote(_ context.Context, symbol string) (contracts.Quote, bool, error) {
	if s.err != nil {
		return contracts.Quote{}, true, s.err
	}
	if !contracts.IsSupported(symbol) {
		return contracts.Quote{}, false, contracts.ErrUnsupportedSymbol
	}
	quote, ok := s.quotes[symbol]
	if !ok {
		return contracts.Quote{}, false, contracts.ErrPriceUnavailable
	}
	return quote, false, nil
}

func (s *stubMarket) News(context.Context, string, int) ([]contracts.Article, error) {
	return s.articles, s.err
}

func (s *stubMarket) Overview(context.Context) (contracts.MarketOverview, error) {
	if s.err != nil {
		return contracts.MarketOverview{}, s.err
	}
	return contracts.MarketOverview{Quotes: s.quotes, TrackedAssets: len(s.quotes)}, nil
}

func (s *stubMarket) DailyCloses(_ context.Context, symbol string, _ int) ([]float64, error) {
	if !contracts.IsSupported(symbol) {
		return nil, contracts.ErrUnsupportedSymbol
	}
	return s.closes, s.err
}

type memOrders struct {
	fills []contracts.Fill
}

func (m *memOrders) RecordFill(_ context.Context, fill contracts.Fill) error {
	m.fills = append(m.fills, fill)
	return nil
}

func (m *memOrders) RecentOrders(_ context.Context, limit int) ([]contracts.Fill, error) {
	if len(m.fills) > limit {
		return m.fills[:limit], nil
	}
	return m.fills, nil
}

func (m *memOrders) TradeHistory(_ context.Context, symbol string, _ time.Time, limit int) ([]contracts.Fill, error) {
	var matched []contracts.Fill
	for _, fill := range m.fills {
		if symbol == "" || fill.Symbol == symbol {
			matched = append(matched, fill)
		}
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memOrders) DeleteAll(context.Context) error {
	m.fills = nil
	return nil
}

func marketFixture() *stubMarket {
	return &stubMarket{quotes: contracts.QuoteSet{
		"BTC": {Symbol: "BTC", Name: "Bitcoin", Price: 50000, Source: "coingecko"},
		"ETH": {Symbol: "ETH", Name: "Ethereum", Price: 2800, Source: "coingecko"},
	}}
}

func newTradingFixture(market MarketData) (*TradingHandler, *ledger.Account, *memOrders) {
	log := logger.NewNop()
	account := ledger.NewAccount(decimal.NewFromInt(10000))
	orders := &memOrders{}
	executor := execution.New(account, orders, execution.Config{
		SlippageBps: 5, FeeBps: 10, MinTradeUSD: 10,
	}, log)
	return NewTradingHandler(executor, account, orders, market, log), account, orders
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPostTrade_Success(t *testing.T) {
	handler, account, orders := newTradingFixture(marketFixture())

	req := httptest.NewRequest(http.MethodPost, "/api/trade",
		bytes.NewBufferString(`{"symbol":"btc","side":"BUY","quantity":"0.1"}`))
	rec := httptest.NewRecorder()
	handler.PostTrade(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "BTC", data["symbol"])
	assert.Equal(t, "50025", data["fill_price"])
	assert.Equal(t, "4992.4975", data["cash_after"])

	assert.True(t, account.Cash().Equal(decimal.RequireFromString("4992.4975")))
	assert.Len(t, orders.fills, 1)
}

func TestPostTrade_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unsupported symbol", `{"symbol":"DOGE","side":"buy","quantity":"1"}`, http.StatusNotFound, "unsupported_symbol"},
		{"invalid quantity", `{"symbol":"BTC","side":"buy","quantity":"0"}`, http.StatusBadRequest, "invalid_quantity"},
		{"too small", `{"symbol":"ETH","side":"buy","quantity":"0.001"}`, http.StatusBadRequest, "trade_too_small"},
		{"insufficient funds", `{"symbol":"BTC","side":"buy","quantity":"5"}`, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"insufficient position", `{"symbol":"ETH","side":"sell","quantity":"1"}`, http.StatusUnprocessableEntity, "insufficient_position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _ := newTradingFixture(marketFixture())

			req := httptest.NewRequest(http.MethodPost, "/api/trade", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.PostTrade(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestPostTrade_MarketDown(t *testing.T) {
	handler, _, _ := newTradingFixture(&stubMarket{err: contracts.ErrPriceUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/api/trade",
		bytes.NewBufferString(`{"symbol":"BTC","side":"buy","quantity":"0.1"}`))
	rec := httptest.NewRecorder()
	handler.PostTrade(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetOrdersAndHistory(t *testing.T) {
	handler, _, _ := newTradingFixture(marketFixture())

	for _, payload := range []string{
		`{"symbol":"BTC","side":"buy","quantity":"0.05"}`,
		`{"symbol":"ETH","side":"buy","quantity":"1"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/trade", bytes.NewBufferString(payload))
		rec := httptest.NewRecorder()
		handler.PostTrade(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.GetOrders(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["count"])

	rec = httptest.NewRecorder()
	handler.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?symbol=ETH", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
}

func TestPostReset(t *testing.T) {
	handler, account, orders := newTradingFixture(marketFixture())

	req := httptest.NewRequest(http.MethodPost, "/api/trade",
		bytes.NewBufferString(`{"symbol":"BTC","side":"buy","quantity":"0.1"}`))
	rec := httptest.NewRecorder()
	handler.PostTrade(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.PostReset(rec, httptest.NewRequest(http.MethodPost, "/api/reset",
		bytes.NewBufferString(`{"starting_cash":"25000"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, account.Cash().Equal(decimal.NewFromInt(25000)))
	snapshot := account.Snapshot()
	assert.Empty(t, snapshot.Positions)
	assert.Empty(t, orders.fills)
}

func TestGetPrices(t *testing.T) {
	handler := NewMarketHandler(marketFixture(), logger.NewNop())

	rec := httptest.NewRecorder()
	handler.GetPrices(rec, httptest.NewRequest(http.MethodGet, "/api/crypto/prices?symbols=btc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data, "BTC")
	assert.NotContains(t, data, "ETH")
	assert.Equal(t, false, body["degraded"])
}

func TestGetPrices_UnsupportedFilter(t *testing.T) {
	handler := NewMarketHandler(marketFixture(), logger.NewNop())

	rec := httptest.NewRecorder()
	handler.GetPrices(rec, httptest.NewRequest(http.MethodGet, "/api/crypto/prices?symbols=DOGE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPrice(t *testing.T) {
	handler := NewMarketHandler(marketFixture(), logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/crypto/prices/BTC", nil),
		map[string]string{"symbol": "btc"})
	rec := httptest.NewRecorder()
	handler.GetPrice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, 50000.0, data["price"])
}

func TestGetIndicators_InsufficientHistory(t *testing.T) {
	market := marketFixture()
	market.closes = []float64{1, 2, 3}
	handler := NewMarketHandler(market, logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/market/indicators/BTC", nil),
		map[string]string{"symbol": "BTC"})
	rec := httptest.NewRecorder()
	handler.GetIndicators(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPortfolio(t *testing.T) {
	log := logger.NewNop()
	market := marketFixture()
	handler, account, _ := newTradingFixture(market)

	req := httptest.NewRequest(http.MethodPost, "/api/trade",
		bytes.NewBufferString(`{"symbol":"BTC","side":"buy","quantity":"0.1"}`))
	rec := httptest.NewRecorder()
	handler.PostTrade(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	portfolio := NewPortfolioHandler(account, rebalance.New(rebalance.Config{MinTradeUSD: 10, ToleranceBps: 100}), market, log)

	rec = httptest.NewRecorder()
	portfolio.GetPortfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["position_count"])
	assert.Equal(t, "BTC", data["largest_position"])
}

func TestGetRebalance(t *testing.T) {
	log := logger.NewNop()
	market := marketFixture()
	_, account, _ := newTradingFixture(market)

	portfolio := NewPortfolioHandler(account, rebalance.New(rebalance.Config{MinTradeUSD: 10, ToleranceBps: 100}), market, log)

	rec := httptest.NewRecorder()
	portfolio.GetRebalance(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/rebalance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// All-cash account with two quoted symbols: two buy suggestions
	assert.Equal(t, float64(2), decodeBody(t, rec)["count"])
}

func TestGetAdvisory(t *testing.T) {
	log := logger.NewNop()
	market := marketFixture()
	market.articles = []contracts.Article{
		{Sentiment: contracts.SentimentPositive},
		{Sentiment: contracts.SentimentPositive},
	}
	_, account, _ := newTradingFixture(market)

	handler := NewAdvisoryHandler(advisor.New(advisor.Config{FocusSymbol: "BTC"}, log), account, market, "BTC", log)

	rec := httptest.NewRecorder()
	handler.GetAdvisory(rec, httptest.NewRequest(http.MethodGet, "/api/advisory", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	recommendation := data["recommendation"].(map[string]interface{})
	assert.Equal(t, "buy", recommendation["action"])
}

func TestGetSupportedAndStatus(t *testing.T) {
	log := logger.NewNop()
	account := ledger.NewAccount(decimal.NewFromInt(10000))
	handler := NewSystemHandler(account, "test", nil, false, log)

	rec := httptest.NewRecorder()
	handler.GetSupported(rec, httptest.NewRequest(http.MethodGet, "/api/supported", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(8), decodeBody(t, rec)["count"])

	rec = httptest.NewRecorder()
	handler.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "disabled", data["database"])
	assert.Equal(t, "disabled", data["redis"])
	assert.Equal(t, float64(0), data["position_count"])
}
