package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/marketdata/news"
	"github.com/cryptofolio/backend/pkg/logger"
	"github.com/cryptofolio/backend/pkg/redis"
)

// PriceSource is the upstream quote provider.
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (contracts.QuoteSet, error)
	GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// NewsSource is the aggregated news provider.
type NewsSource interface {
	Fetch(ctx context.Context, symbols []string) ([]contracts.Article, error)
	ForSymbol(ctx context.Context, symbol string, limit int) ([]contracts.Article, error)
}

// Config tunes fetcher caching and upstream budget.
type Config struct {
	PriceCacheTTL time.Duration
	// UpstreamPerMinute bounds CoinGecko calls across processes via the
	// shared Redis window. 0 disables the shared limiter.
	UpstreamPerMinute int
	RequestTimeout    time.Duration
}

// Fetcher is the market-data entry point for the rest of the system.
// It serves fresh quotes from cache when possible and degrades to the
// last known quotes when the upstream is unavailable.
type Fetcher struct {
	prices  PriceSource
	news    NewsSource
	cache   *redis.Cache
	limiter *redis.RateLimiter
	cfg     Config
	logger  *logger.Logger

	mu    sync.RWMutex
	stale contracts.QuoteSet
}

// NewFetcher creates a Fetcher.
func NewFetcher(prices PriceSource, newsSource NewsSource, cache *redis.Cache, limiter *redis.RateLimiter, cfg Config, log *logger.Logger) *Fetcher {
	if cfg.PriceCacheTTL <= 0 {
		cfg.PriceCacheTTL = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Fetcher{
		prices:  prices,
		news:    newsSource,
		cache:   cache,
		limiter: limiter,
		cfg:     cfg,
		logger:  log.WithField("module", "marketdata"),
		stale:   contracts.QuoteSet{},
	}
}

// Quotes returns current quotes for the given symbols, the whole
// universe when symbols is empty. The degraded flag is set when any
// quote comes from the stale fallback instead of the upstream.
func (f *Fetcher) Quotes(ctx context.Context, symbols []string) (contracts.QuoteSet, bool, error) {
	if len(symbols) == 0 {
		symbols = contracts.SupportedSymbols()
	}

	var cached contracts.QuoteSet
	if hit, err := f.cache.Get(ctx, "prices", &cached); err == nil && hit {
		if quotes := subset(cached, symbols); len(quotes) == len(symbols) {
			return quotes, false, nil
		}
	}

	quotes, err := f.fetchUpstream(ctx, symbols)
	if err != nil {
		f.logger.WithError(err).Warn("Upstream quote fetch failed, falling back to stale cache")
		stale := f.staleQuotes(ctx, symbols)
		if len(stale) == 0 {
			return nil, true, fmt.Errorf("%w: no cached fallback", contracts.ErrPriceUnavailable)
		}
		return stale, true, nil
	}

	f.remember(ctx, quotes)
	return quotes, false, nil
}

// Quote returns the current quote for one symbol.
func (f *Fetcher) Quote(ctx context.Context, symbol string) (contracts.Quote, bool, error) {
	if !contracts.IsSupported(symbol) {
		return contracts.Quote{}, false, contracts.ErrUnsupportedSymbol
	}

	quotes, degraded, err := f.Quotes(ctx, []string{symbol})
	if err != nil {
		return contracts.Quote{}, degraded, err
	}
	quote, ok := quotes[symbol]
	if !ok {
		return contracts.Quote{}, degraded, contracts.ErrPriceUnavailable
	}
	return quote, degraded, nil
}

// News returns scored articles, optionally filtered to one symbol.
func (f *Fetcher) News(ctx context.Context, symbol string, limit int) ([]contracts.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	if symbol != "" {
		if !contracts.IsSupported(symbol) {
			return nil, contracts.ErrUnsupportedSymbol
		}
		return f.news.ForSymbol(ctx, symbol, limit)
	}

	articles, err := f.news.Fetch(ctx, contracts.SupportedSymbols())
	if err != nil {
		return nil, err
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// DailyCloses returns daily closing prices for indicator input.
func (f *Fetcher) DailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	if !contracts.IsSupported(symbol) {
		return nil, contracts.ErrUnsupportedSymbol
	}

	cacheKey := fmt.Sprintf("closes:%s:%d", symbol, days)
	var closes []float64
	if hit, err := f.cache.Get(ctx, cacheKey, &closes); err == nil && hit {
		return closes, nil
	}

	if err := f.waitUpstream(ctx); err != nil {
		return nil, err
	}

	closes, err := f.prices.GetDailyCloses(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, cacheKey, closes, time.Hour); err != nil {
		f.logger.WithError(err).Warn("Failed to cache daily closes")
	}
	return closes, nil
}

// Overview fetches quotes and news in parallel and aggregates the
// dashboard view. A news failure degrades to quotes only.
func (f *Fetcher) Overview(ctx context.Context) (contracts.MarketOverview, error) {
	var (
		wg       sync.WaitGroup
		quotes   contracts.QuoteSet
		degraded bool
		quoteErr error
		articles []contracts.Article
		newsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		quotes, degraded, quoteErr = f.Quotes(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		articles, newsErr = f.News(ctx, "", 10)
	}()
	wg.Wait()

	if quoteErr != nil {
		return contracts.MarketOverview{}, quoteErr
	}
	if newsErr != nil {
		f.logger.WithError(newsErr).Warn("News unavailable for market overview")
		degraded = true
	}

	var totalCap float64
	for _, quote := range quotes {
		totalCap += quote.MarketCap
	}
	overall, counts := news.Summarize(articles)

	return contracts.MarketOverview{
		Quotes:         quotes,
		News:           articles,
		TotalMarketCap: totalCap,
		TrackedAssets:  len(quotes),
		NewsSentiment:  overall,
		SentimentCount: counts,
		Degraded:       degraded,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// Refresh forces an upstream fetch of the full universe, bypassing the
// fresh cache. Used by the scheduler so API reads stay cache-warm.
func (f *Fetcher) Refresh(ctx context.Context) (contracts.QuoteSet, error) {
	quotes, err := f.fetchUpstream(ctx, contracts.SupportedSymbols())
	if err != nil {
		return nil, err
	}
	f.remember(ctx, quotes)
	return quotes, nil
}

func (f *Fetcher) fetchUpstream(ctx context.Context, symbols []string) (contracts.QuoteSet, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	if err := f.waitUpstream(ctx); err != nil {
		return nil, err
	}

	quotes, err := f.prices.GetPrices(ctx, symbols)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, contracts.ErrPriceUnavailable
	}
	return quotes, nil
}

// waitUpstream blocks on the shared Redis window so every process
// counts against the same upstream quota.
func (f *Fetcher) waitUpstream(ctx context.Context) error {
	if f.limiter == nil || f.cfg.UpstreamPerMinute <= 0 {
		return nil
	}
	err := f.limiter.Wait(ctx, redis.RateLimitConfig{
		Key:    "coingecko",
		Limit:  f.cfg.UpstreamPerMinute,
		Window: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrUpstreamTimeout, err)
	}
	return nil
}

func (f *Fetcher) remember(ctx context.Context, quotes contracts.QuoteSet) {
	f.mu.Lock()
	for symbol, quote := range quotes {
		f.stale[symbol] = quote
	}
	f.mu.Unlock()

	if err := f.cache.Set(ctx, "prices", quotes, f.cfg.PriceCacheTTL); err != nil {
		f.logger.WithError(err).Warn("Failed to cache quotes")
	}
	// No expiry, kept for degraded reads
	if err := f.cache.Set(ctx, "prices:stale", quotes, 0); err != nil {
		f.logger.WithError(err).Warn("Failed to store stale quotes")
	}
}

// staleQuotes rebuilds the best available quote set from Redis, then
// from process memory, marking every entry as cache-sourced.
func (f *Fetcher) staleQuotes(ctx context.Context, symbols []string) contracts.QuoteSet {
	var persisted contracts.QuoteSet
	if hit, err := f.cache.Get(ctx, "prices:stale", &persisted); err != nil || !hit {
		persisted = contracts.QuoteSet{}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(contracts.QuoteSet, len(symbols))
	for _, symbol := range symbols {
		quote, ok := persisted[symbol]
		if !ok {
			if quote, ok = f.stale[symbol]; !ok {
				continue
			}
		}
		quote.Source = "cache"
		result[symbol] = quote
	}
	return result
}

func subset(quotes contracts.QuoteSet, symbols []string) contracts.QuoteSet {
	result := make(contracts.QuoteSet, len(symbols))
	for _, symbol := range symbols {
		if quote, ok := quotes[symbol]; ok {
			result[symbol] = quote
		}
	}
	return result
}
