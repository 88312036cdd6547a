package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/logger"
)

func newTestAdvisor() *Advisor {
	return New(Config{FocusSymbol: "BTC"}, logger.NewNop())
}

func positiveNews(n int) []contracts.Article {
	articles := make([]contracts.Article, n)
	for i := range articles {
		articles[i] = contracts.Article{Sentiment: contracts.SentimentPositive}
	}
	return articles
}

func negativeNews(n int) []contracts.Article {
	articles := make([]contracts.Article, n)
	for i := range articles {
		articles[i] = contracts.Article{Sentiment: contracts.SentimentNegative}
	}
	return articles
}

func TestAdvise_BuyOnPositiveSentiment(t *testing.T) {
	valuation := contracts.ValuationSnapshot{Cash: 10000, TotalValue: 10000}
	quote := contracts.Quote{Symbol: "BTC", Price: 50000, Source: "coingecko"}

	advisory, err := newTestAdvisor().Advise(context.Background(), valuation, quote, positiveNews(3))
	require.NoError(t, err)

	rec := advisory.Recommendation
	assert.Equal(t, "buy", rec.Action)
	assert.Equal(t, "BTC", rec.Symbol)
	// 20% of 10k = 2000, at the cap, 2000/50000 BTC
	assert.InDelta(t, 0.04, rec.Quantity, 1e-9)
	assert.Equal(t, 0.7, rec.Confidence)
	require.NotNil(t, rec.TargetPrice)
	require.NotNil(t, rec.StopLoss)
	assert.InDelta(t, 55000, *rec.TargetPrice, 1e-6)
	assert.InDelta(t, 47500, *rec.StopLoss, 1e-6)
}

func TestAdvise_SellHalfOnNegativeSentiment(t *testing.T) {
	valuation := contracts.ValuationSnapshot{
		Cash: 2000, TotalValue: 7000,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", Quantity: 0.1, MarketValue: 5000, PnL: 200},
		},
	}
	quote := contracts.Quote{Symbol: "BTC", Price: 50000}

	advisory, err := newTestAdvisor().Advise(context.Background(), valuation, quote, negativeNews(3))
	require.NoError(t, err)

	rec := advisory.Recommendation
	assert.Equal(t, "sell", rec.Action)
	assert.InDelta(t, 0.05, rec.Quantity, 1e-9)
	assert.Nil(t, rec.TargetPrice)
}

func TestAdvise_TakeProfits(t *testing.T) {
	valuation := contracts.ValuationSnapshot{
		Cash: 500, TotalValue: 8000,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", Quantity: 0.1, MarketValue: 7500, PnL: 1500},
		},
	}
	quote := contracts.Quote{Symbol: "BTC", Price: 75000}

	advisory, err := newTestAdvisor().Advise(context.Background(), valuation, quote, nil)
	require.NoError(t, err)

	rec := advisory.Recommendation
	assert.Equal(t, "sell", rec.Action)
	assert.InDelta(t, 0.03, rec.Quantity, 1e-9)
	assert.Equal(t, 0.8, rec.Confidence)
}

func TestAdvise_HoldOnMixedSignals(t *testing.T) {
	valuation := contracts.ValuationSnapshot{Cash: 10000, TotalValue: 10000}
	quote := contracts.Quote{Symbol: "BTC", Price: 50000}

	advisory, err := newTestAdvisor().Advise(context.Background(), valuation, quote, nil)
	require.NoError(t, err)

	rec := advisory.Recommendation
	assert.Equal(t, "hold", rec.Action)
	assert.Zero(t, rec.Quantity)
	assert.Equal(t, 0.5, rec.Confidence)
	assert.NotEmpty(t, advisory.Explanation)
}

func TestAdvise_NoBuyWithoutCash(t *testing.T) {
	valuation := contracts.ValuationSnapshot{Cash: 500, TotalValue: 500}
	quote := contracts.Quote{Symbol: "BTC", Price: 50000}

	advisory, err := newTestAdvisor().Advise(context.Background(), valuation, quote, positiveNews(3))
	require.NoError(t, err)
	assert.Equal(t, "hold", advisory.Recommendation.Action)
}

func TestAdvise_MissingQuote(t *testing.T) {
	_, err := newTestAdvisor().Advise(context.Background(), contracts.ValuationSnapshot{}, contracts.Quote{}, nil)
	require.ErrorIs(t, err, contracts.ErrPriceUnavailable)
}

func TestAssessPortfolio_Exposure(t *testing.T) {
	advisor := newTestAdvisor()
	assessment := advisor.assessPortfolio(contracts.ValuationSnapshot{
		Cash: 2500, TotalValue: 10000,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", Quantity: 0.1, MarketValue: 7500},
		},
	})

	assert.True(t, assessment.HasPosition)
	assert.InDelta(t, 0.75, assessment.Exposure, 1e-9)
	assert.Equal(t, "medium", assessment.RiskCapacity)
}

func TestDominantSentiment_OnlyTopArticlesCount(t *testing.T) {
	// Five neutral articles ahead of the positives
	articles := make([]contracts.Article, 5)
	for i := range articles {
		articles[i] = contracts.Article{Sentiment: contracts.SentimentNeutral}
	}
	articles = append(articles, positiveNews(3)...)

	assert.Equal(t, contracts.SentimentNeutral, dominantSentiment(articles))
}

func TestTrendFromChange(t *testing.T) {
	assert.Equal(t, "very_bullish", trendFromChange(7.2))
	assert.Equal(t, "bullish", trendFromChange(2.0))
	assert.Equal(t, "neutral", trendFromChange(0.3))
	assert.Equal(t, "bearish", trendFromChange(-2.0))
	assert.Equal(t, "very_bearish", trendFromChange(-8.0))
}
