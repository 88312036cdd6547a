package rebalance

import (
	"fmt"
	"math"
	"sort"

	"github.com/cryptofolio/backend/internal/contracts"
)

// Config holds the rebalancing tolerance parameters.
type Config struct {
	// MinTradeUSD suppresses suggestions too small to bother with.
	MinTradeUSD float64
	// ToleranceBps is the allowed weight deviation, in basis points of
	// total portfolio value, before a suggestion is emitted.
	ToleranceBps int64
}

// Rebalancer compares current position weights against a target
// allocation and emits advisory buy/sell suggestions. Computing
// suggestions has no side effects; executing one goes through the
// trade executor like any other intent.
type Rebalancer struct {
	cfg Config
}

// New creates a Rebalancer.
func New(cfg Config) *Rebalancer {
	return &Rebalancer{cfg: cfg}
}

// EqualWeightTargets builds the default policy: equal weight across
// every universe symbol present in the quote set.
func EqualWeightTargets(quotes contracts.QuoteSet) map[string]float64 {
	symbols := make([]string, 0, len(quotes))
	for symbol := range quotes {
		if contracts.IsSupported(symbol) {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return map[string]float64{}
	}

	target := 1.0 / float64(len(symbols))
	targets := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		targets[symbol] = target
	}
	return targets
}

// Suggest computes rebalancing trades that would move each position to
// its target weight. Targets apply to total portfolio value, cash
// included. Suggestions are ordered by deviation magnitude, largest
// first, tie-broken by symbol for determinism.
func (r *Rebalancer) Suggest(v contracts.ValuationSnapshot, quotes contracts.QuoteSet, targets map[string]float64) []contracts.Suggestion {
	if len(targets) == 0 {
		targets = EqualWeightTargets(quotes)
	}
	if v.TotalValue <= 0 {
		return nil
	}

	tolerance := v.TotalValue * float64(r.cfg.ToleranceBps) / 10000
	if tolerance < r.cfg.MinTradeUSD {
		tolerance = r.cfg.MinTradeUSD
	}

	currentValues := make(map[string]float64, len(v.Positions))
	for _, pos := range v.Positions {
		currentValues[pos.Symbol] = pos.MarketValue
	}

	type deviation struct {
		suggestion contracts.Suggestion
		magnitude  float64
	}

	deviations := make([]deviation, 0, len(targets))
	for symbol, targetWeight := range targets {
		quote, ok := quotes[symbol]
		if !ok || quote.Price <= 0 {
			continue
		}

		currentValue := currentValues[symbol]
		targetValue := v.TotalValue * targetWeight
		diff := targetValue - currentValue

		if math.Abs(diff) <= tolerance {
			continue
		}

		suggestion := contracts.Suggestion{
			Symbol:        symbol,
			Quantity:      math.Abs(diff) / quote.Price,
			Value:         math.Abs(diff),
			CurrentWeight: currentValue / v.TotalValue,
			TargetWeight:  targetWeight,
		}
		if diff > 0 {
			suggestion.Action = contracts.SideBuy
			suggestion.Reason = fmt.Sprintf("Underweight by $%.2f", diff)
		} else {
			suggestion.Action = contracts.SideSell
			suggestion.Reason = fmt.Sprintf("Overweight by $%.2f", -diff)
		}

		deviations = append(deviations, deviation{suggestion: suggestion, magnitude: math.Abs(diff)})
	}

	sort.Slice(deviations, func(i, j int) bool {
		if deviations[i].magnitude != deviations[j].magnitude {
			return deviations[i].magnitude > deviations[j].magnitude
		}
		return deviations[i].suggestion.Symbol < deviations[j].suggestion.Symbol
	})

	suggestions := make([]contracts.Suggestion, len(deviations))
	for i, d := range deviations {
		suggestions[i] = d.suggestion
	}
	return suggestions
}
