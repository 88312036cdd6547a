package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents buy or sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TradeIntent is the input to the trade executor.
type TradeIntent struct {
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Fill records a simulated execution against the ledger.
type Fill struct {
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	FillPrice  decimal.Decimal `json:"fill_price"`
	Fee        decimal.Decimal `json:"fee"`
	CashAfter  decimal.Decimal `json:"cash_after"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Notional returns quantity * fill price.
func (f Fill) Notional() decimal.Decimal {
	return f.Quantity.Mul(f.FillPrice)
}

// Suggestion is one advisory rebalancing trade. Computed fresh per
// request and never persisted.
type Suggestion struct {
	Action        Side    `json:"action"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	Value         float64 `json:"value"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	Reason        string  `json:"reason"`
}

// Recommendation is the advisor output.
type Recommendation struct {
	Action      string   `json:"action"` // buy, sell, hold
	Symbol      string   `json:"symbol"`
	Quantity    float64  `json:"quantity"`
	Confidence  float64  `json:"confidence"` // 0-1
	Reasoning   string   `json:"reasoning"`
	RiskLevel   string   `json:"risk_level"` // low, medium, high
	TargetPrice *float64 `json:"target_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
}
