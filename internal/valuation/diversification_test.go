package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiversificationScore_Empty(t *testing.T) {
	assert.Zero(t, DiversificationScore(nil))
	assert.Zero(t, DiversificationScore(map[string]float64{}))
}

func TestDiversificationScore_SinglePosition(t *testing.T) {
	score := DiversificationScore(map[string]float64{"BTC": 5000})
	assert.Zero(t, score, "full concentration in one symbol scores 0")
}

func TestDiversificationScore_EqualWeights(t *testing.T) {
	// N equal positions score 100*(1-1/N)
	two := DiversificationScore(map[string]float64{"BTC": 1000, "ETH": 1000})
	assert.InDelta(t, 50.0, two, 1e-9)

	four := DiversificationScore(map[string]float64{
		"BTC": 1000, "ETH": 1000, "SOL": 1000, "ADA": 1000,
	})
	assert.InDelta(t, 75.0, four, 1e-9)

	eight := DiversificationScore(map[string]float64{
		"BTC": 1, "ETH": 1, "SOL": 1, "ADA": 1,
		"DOT": 1, "LINK": 1, "MATIC": 1, "AVAX": 1,
	})
	assert.InDelta(t, 87.5, eight, 1e-9)
}

func TestDiversificationScore_MoreSymbolsScoreHigher(t *testing.T) {
	one := DiversificationScore(map[string]float64{"BTC": 1000})
	two := DiversificationScore(map[string]float64{"BTC": 500, "ETH": 500})
	three := DiversificationScore(map[string]float64{"BTC": 400, "ETH": 300, "SOL": 300})

	assert.Less(t, one, two)
	assert.Less(t, two, three)
}

func TestDiversificationScore_ConcentrationLowersScore(t *testing.T) {
	even := DiversificationScore(map[string]float64{"BTC": 500, "ETH": 500})
	skewed := DiversificationScore(map[string]float64{"BTC": 900, "ETH": 100})

	assert.Less(t, skewed, even)
}

func TestDiversificationScore_Bounds(t *testing.T) {
	score := DiversificationScore(map[string]float64{"BTC": 123.45, "ETH": 678.9, "SOL": 42})
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}
