package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/httputil"
	"github.com/cryptofolio/backend/pkg/logger"
)

// Client handles communication with the CoinGecko API. All price data
// enters the system through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// Config holds CoinGecko client settings.
type Config struct {
	BaseURL       string
	APIKey        string
	RatePerMinute int
}

// NewClient creates a new CoinGecko client.
func NewClient(httpClient *httputil.Client, cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "coingecko"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// priceEntry mirrors one asset in the /simple/price response.
type priceEntry struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// GetPrices fetches current quotes for the given symbols. Symbols
// outside the supported universe are ignored. A symbol the upstream
// omits is simply absent from the result.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (contracts.QuoteSet, error) {
	assets := make([]contracts.Asset, 0, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		asset, ok := contracts.LookupAsset(symbol)
		if !ok {
			continue
		}
		assets = append(assets, asset)
		ids = append(ids, asset.CoinGeckoID)
	}
	if len(ids) == 0 {
		return contracts.QuoteSet{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")

	body, err := c.fetchJSON(ctx, "/simple/price", params)
	if err != nil {
		return nil, err
	}

	var entries map[string]priceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}

	now := time.Now().UTC()
	quotes := make(contracts.QuoteSet, len(assets))
	for _, asset := range assets {
		entry, ok := entries[asset.CoinGeckoID]
		if !ok || entry.USD <= 0 {
			c.logger.WithField("symbol", asset.Symbol).Warn("Price missing from upstream response")
			continue
		}
		quotes[asset.Symbol] = contracts.Quote{
			Symbol:    asset.Symbol,
			Name:      asset.Name,
			Price:     entry.USD,
			Change24h: entry.USD24hChange,
			MarketCap: entry.USDMarketCap,
			Volume24h: entry.USD24hVol,
			FetchedAt: now,
			Source:    "coingecko",
		}
	}

	return quotes, nil
}

// chartResponse mirrors the /coins/{id}/market_chart response. Each
// point is a [timestamp_ms, value] pair.
type chartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// GetDailyCloses fetches daily closing prices for one symbol, oldest
// first. Used as indicator input.
func (c *Client) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	asset, ok := contracts.LookupAsset(symbol)
	if !ok {
		return nil, contracts.ErrUnsupportedSymbol
	}
	if days <= 0 {
		days = 90
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("interval", "daily")

	body, err := c.fetchJSON(ctx, "/coins/"+asset.CoinGeckoID+"/market_chart", params)
	if err != nil {
		return nil, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse market chart: %w", err)
	}

	closes := make([]float64, 0, len(chart.Prices))
	for _, point := range chart.Prices {
		closes = append(closes, point[1])
	}
	return closes, nil
}

// fetchJSON performs a rate-limited GET and returns the raw body.
func (c *Client) fetchJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["x-cg-demo-api-key"] = c.apiKey
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: upstream rate limited", contracts.ErrPriceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", contracts.ErrPriceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
