package valuation

import (
	"sort"

	"github.com/cryptofolio/backend/internal/contracts"
)

// Value combines a ledger snapshot with live quotes into a full
// portfolio view.
//
// A held symbol without a quote is excluded from the totals and listed
// under StaleSymbols; missing prices degrade the valuation, they never
// fail it. Total P&L is measured against the starting cash baseline.
func Value(snapshot contracts.AccountSnapshot, quotes contracts.QuoteSet) contracts.ValuationSnapshot {
	cash, _ := snapshot.Cash.Float64()
	startingCash, _ := snapshot.StartingCash.Float64()

	result := contracts.ValuationSnapshot{
		Cash:      cash,
		Positions: make([]contracts.PositionValuation, 0, len(snapshot.Positions)),
	}

	positionValues := make(map[string]float64, len(snapshot.Positions))

	for symbol, pos := range snapshot.Positions {
		if pos.Quantity.IsZero() {
			continue
		}

		quote, ok := quotes[symbol]
		if !ok {
			result.StaleSymbols = append(result.StaleSymbols, symbol)
			continue
		}

		quantity, _ := pos.Quantity.Float64()
		avgPrice, _ := pos.AvgPrice.Float64()

		marketValue := quantity * quote.Price
		costBasis := quantity * avgPrice
		pnl := marketValue - costBasis

		pnlPct := 0.0
		if costBasis > 0 {
			pnlPct = pnl / costBasis * 100
		}

		result.Positions = append(result.Positions, contracts.PositionValuation{
			Symbol:       symbol,
			Quantity:     quantity,
			AvgPrice:     avgPrice,
			CurrentPrice: quote.Price,
			MarketValue:  marketValue,
			PnL:          pnl,
			PnLPct:       pnlPct,
		})

		result.InvestedValue += marketValue
		positionValues[symbol] = marketValue
	}

	sort.Slice(result.Positions, func(i, j int) bool {
		return result.Positions[i].Symbol < result.Positions[j].Symbol
	})
	sort.Strings(result.StaleSymbols)

	result.TotalValue = cash + result.InvestedValue
	result.TotalPnL = result.TotalValue - startingCash
	if startingCash > 0 {
		result.TotalPnLPct = result.TotalPnL / startingCash * 100
	}

	result.PositionCount = len(result.Positions)
	result.LargestPosition = largestPosition(positionValues)
	result.DiversificationScore = DiversificationScore(positionValues)

	return result
}

func largestPosition(values map[string]float64) string {
	largest := ""
	largestValue := 0.0
	for symbol, value := range values {
		if value > largestValue || (value == largestValue && (largest == "" || symbol < largest)) {
			largest = symbol
			largestValue = value
		}
	}
	return largest
}
