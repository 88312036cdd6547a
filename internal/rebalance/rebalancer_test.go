package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/contracts"
)

func testRebalancer() *Rebalancer {
	return New(Config{MinTradeUSD: 10, ToleranceBps: 100})
}

func TestEqualWeightTargets(t *testing.T) {
	quotes := contracts.QuoteSet{
		"BTC": {Price: 45000}, "ETH": {Price: 2800},
		"SOL": {Price: 95}, "DOGE": {Price: 0.1},
	}

	targets := EqualWeightTargets(quotes)

	// DOGE is outside the supported universe
	require.Len(t, targets, 3)
	for _, weight := range targets {
		assert.InDelta(t, 1.0/3.0, weight, 1e-9)
	}
}

func TestSuggest_BalancedPortfolioIsQuiet(t *testing.T) {
	quotes := contracts.QuoteSet{
		"BTC": {Price: 100}, "ETH": {Price: 100},
	}
	v := contracts.ValuationSnapshot{
		TotalValue: 200,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", MarketValue: 100},
			{Symbol: "ETH", MarketValue: 100},
		},
	}

	suggestions := testRebalancer().Suggest(v, quotes, nil)
	assert.Empty(t, suggestions, "already at equal weights within tolerance")
}

func TestSuggest_UnderAndOverweight(t *testing.T) {
	quotes := contracts.QuoteSet{
		"BTC": {Price: 100}, "ETH": {Price: 50},
	}
	// BTC 900, ETH 100, cash 0 -> targets 500/500
	v := contracts.ValuationSnapshot{
		TotalValue: 1000,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", MarketValue: 900},
			{Symbol: "ETH", MarketValue: 100},
		},
	}

	suggestions := testRebalancer().Suggest(v, quotes, nil)
	require.Len(t, suggestions, 2)

	// Both deviate by 400; tie broken by symbol
	assert.Equal(t, "BTC", suggestions[0].Symbol)
	assert.Equal(t, contracts.SideSell, suggestions[0].Action)
	assert.InDelta(t, 400.0, suggestions[0].Value, 1e-9)
	assert.InDelta(t, 4.0, suggestions[0].Quantity, 1e-9)

	assert.Equal(t, "ETH", suggestions[1].Symbol)
	assert.Equal(t, contracts.SideBuy, suggestions[1].Action)
	assert.InDelta(t, 8.0, suggestions[1].Quantity, 1e-9)
}

func TestSuggest_OrderedByDeviationMagnitude(t *testing.T) {
	quotes := contracts.QuoteSet{
		"BTC": {Price: 100}, "ETH": {Price: 100}, "SOL": {Price: 100},
	}
	// Targets: 300 each. BTC off by 300, ETH by 200, SOL by 100... cash fills rest.
	v := contracts.ValuationSnapshot{
		TotalValue: 900,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", MarketValue: 600},
			{Symbol: "ETH", MarketValue: 100},
			{Symbol: "SOL", MarketValue: 200},
		},
	}

	suggestions := testRebalancer().Suggest(v, quotes, nil)
	require.Len(t, suggestions, 3)
	assert.Equal(t, "BTC", suggestions[0].Symbol)
	assert.Equal(t, "ETH", suggestions[1].Symbol)
	assert.Equal(t, "SOL", suggestions[2].Symbol)
}

func TestSuggest_TargetsIncludeCash(t *testing.T) {
	quotes := contracts.QuoteSet{"BTC": {Price: 100}}
	// All cash, one supported symbol quoted: target is full value in BTC
	v := contracts.ValuationSnapshot{TotalValue: 1000}

	suggestions := testRebalancer().Suggest(v, quotes, nil)
	require.Len(t, suggestions, 1)
	assert.Equal(t, contracts.SideBuy, suggestions[0].Action)
	assert.InDelta(t, 1000.0, suggestions[0].Value, 1e-9)
}

func TestSuggest_RespectsMinTrade(t *testing.T) {
	quotes := contracts.QuoteSet{"BTC": {Price: 100}, "ETH": {Price: 100}}
	v := contracts.ValuationSnapshot{
		TotalValue: 100,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", MarketValue: 52},
			{Symbol: "ETH", MarketValue: 48},
		},
	}

	// Deviation of $2 is under the $10 minimum trade
	suggestions := testRebalancer().Suggest(v, quotes, nil)
	assert.Empty(t, suggestions)
}

func TestSuggest_ExplicitTargets(t *testing.T) {
	quotes := contracts.QuoteSet{"BTC": {Price: 100}, "ETH": {Price: 100}}
	v := contracts.ValuationSnapshot{
		TotalValue: 1000,
		Positions: []contracts.PositionValuation{
			{Symbol: "BTC", MarketValue: 1000},
		},
	}

	targets := map[string]float64{"BTC": 0.7, "ETH": 0.3}
	suggestions := testRebalancer().Suggest(v, quotes, targets)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "BTC", suggestions[0].Symbol)
	assert.InDelta(t, 300.0, suggestions[0].Value, 1e-9)
	assert.Equal(t, contracts.SideSell, suggestions[0].Action)
}

func TestSuggest_EmptyPortfolio(t *testing.T) {
	suggestions := testRebalancer().Suggest(contracts.ValuationSnapshot{}, contracts.QuoteSet{}, nil)
	assert.Empty(t, suggestions)
}
