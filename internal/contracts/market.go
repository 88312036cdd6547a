package contracts

import "time"

// Quote is a normalized market-data record for one symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change_24h"`
	MarketCap float64   `json:"market_cap"`
	Volume24h float64   `json:"volume_24h"`
	FetchedAt time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "coingecko" or "cache"
}

// QuoteSet maps symbol to its latest quote. Symbols may be missing
// after a partial upstream failure; consumers must treat absence as
// ErrPriceUnavailable for that symbol, not as a fatal condition.
type QuoteSet map[string]Quote

// Prices flattens the set to symbol -> price.
func (qs QuoteSet) Prices() map[string]float64 {
	prices := make(map[string]float64, len(qs))
	for symbol, quote := range qs {
		prices[symbol] = quote.Price
	}
	return prices
}

// Sentiment labels for news articles.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Article is a normalized news record.
type Article struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"published_at"`
	Source          string    `json:"source"`
	Sentiment       string    `json:"sentiment"`
	Relevance       float64   `json:"relevance"`
	RelevantSymbols []string  `json:"relevant_symbols"`
}

// MarketOverview bundles quotes, news and aggregate metrics for the
// dashboard landing view.
type MarketOverview struct {
	Quotes         QuoteSet       `json:"prices"`
	News           []Article      `json:"news"`
	TotalMarketCap float64        `json:"total_market_cap"`
	TrackedAssets  int            `json:"tracked_assets"`
	NewsSentiment  string         `json:"news_sentiment"`
	SentimentCount map[string]int `json:"sentiment_breakdown"`
	Degraded       bool           `json:"degraded"`
	Timestamp      time.Time      `json:"timestamp"`
}
