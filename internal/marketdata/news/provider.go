package news

import (
	"context"
	"strings"

	"github.com/cryptofolio/backend/internal/contracts"
)

// Provider fetches raw articles from one upstream news source.
// Sentiment and relevance scoring happen in the Aggregator, not here.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]contracts.Article, error)
}

// extractSymbols finds universe symbols mentioned in the text.
func extractSymbols(text string) []string {
	upper := strings.ToUpper(text)

	var symbols []string
	for _, symbol := range contracts.SupportedSymbols() {
		if strings.Contains(upper, symbol) {
			symbols = append(symbols, symbol)
			continue
		}
		if asset, ok := contracts.LookupAsset(symbol); ok {
			if strings.Contains(upper, strings.ToUpper(asset.Name)) {
				symbols = append(symbols, symbol)
			}
		}
	}
	return symbols
}
