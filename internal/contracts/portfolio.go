package contracts

import (
	"github.com/shopspring/decimal"
)

// Position is one held asset in the ledger. Monetary fields use
// decimals so the weighted-average cost basis stays exact.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// CostBasis returns quantity * average price.
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AvgPrice)
}

// AccountSnapshot is an immutable copy of the ledger state, safe to
// read without holding the account lock.
type AccountSnapshot struct {
	Cash         decimal.Decimal     `json:"cash"`
	StartingCash decimal.Decimal     `json:"starting_cash"`
	Positions    map[string]Position `json:"positions"`
}

// PositionValuation is a position enriched with live-market figures.
type PositionValuation struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	PnL          float64 `json:"pnl"`
	PnLPct       float64 `json:"pnl_pct"`
}

// ValuationSnapshot is the full portfolio view returned by the
// valuation engine. TotalPnL is measured against the initial funding
// amount, not cost basis; cash movements are not invested capital.
type ValuationSnapshot struct {
	Cash                 float64             `json:"cash"`
	TotalValue           float64             `json:"total_value"`
	TotalPnL             float64             `json:"total_pnl"`
	TotalPnLPct          float64             `json:"total_pnl_pct"`
	InvestedValue        float64             `json:"invested_value"`
	Positions            []PositionValuation `json:"positions"`
	PositionCount        int                 `json:"position_count"`
	LargestPosition      string              `json:"largest_position"`
	DiversificationScore float64             `json:"diversification_score"`
	StaleSymbols         []string            `json:"stale_symbols,omitempty"`
}

// PositionWeights returns market-value weights over invested value
// (cash excluded). Empty when nothing is invested.
func (v *ValuationSnapshot) PositionWeights() map[string]float64 {
	if v.InvestedValue <= 0 {
		return map[string]float64{}
	}

	weights := make(map[string]float64, len(v.Positions))
	for _, pos := range v.Positions {
		weights[pos.Symbol] = pos.MarketValue / v.InvestedValue
	}
	return weights
}
