package execution

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/pkg/logger"
)

// Recorder persists executed fills. Recording is best-effort: a
// failure is logged but never undoes the ledger mutation.
type Recorder interface {
	RecordFill(ctx context.Context, fill contracts.Fill) error
}

// NopRecorder discards fills. Used when history persistence is off.
type NopRecorder struct{}

func (NopRecorder) RecordFill(context.Context, contracts.Fill) error { return nil }

// Config holds the simulated-execution parameters.
type Config struct {
	SlippageBps int64
	FeeBps      int64
	MinTradeUSD float64
	// MaxPositionPct caps a single asset's share of portfolio value on
	// buys. 0 disables the cap.
	MaxPositionPct float64
}

// Executor turns trade intents into simulated fills against the ledger.
// Buys fill at price*(1+slippage), sells at price*(1-slippage); the fee
// is charged on the fill notional in addition.
type Executor struct {
	account  *ledger.Account
	recorder Recorder
	cfg      Config
	logger   *logger.Logger
}

// New creates an Executor.
func New(account *ledger.Account, recorder Recorder, cfg Config, log *logger.Logger) *Executor {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Executor{
		account:  account,
		recorder: recorder,
		cfg:      cfg,
		logger:   log.WithField("module", "execution"),
	}
}

// Execute validates the intent, derives the fill price and fee, and
// applies the fill to the ledger. All failures are raised before any
// state change.
func (e *Executor) Execute(ctx context.Context, intent contracts.TradeIntent, quote contracts.Quote) (contracts.Fill, error) {
	if !contracts.IsSupported(intent.Symbol) {
		return contracts.Fill{}, contracts.ErrUnsupportedSymbol
	}
	if !intent.Side.Valid() || !intent.Quantity.IsPositive() {
		return contracts.Fill{}, contracts.ErrInvalidQuantity
	}
	if quote.Price <= 0 {
		return contracts.Fill{}, contracts.ErrPriceUnavailable
	}

	fillPrice := e.fillPrice(intent.Side, quote.Price)
	notional := intent.Quantity.Mul(fillPrice)
	fee := notional.Mul(decimal.NewFromInt(e.cfg.FeeBps)).Div(decimal.NewFromInt(10000))

	if notional.LessThan(decimal.NewFromFloat(e.cfg.MinTradeUSD)) {
		return contracts.Fill{}, contracts.ErrTradeTooSmall
	}

	if intent.Side == contracts.SideBuy && e.cfg.MaxPositionPct > 0 {
		if err := e.checkPositionCap(intent.Symbol, intent.Quantity, fillPrice); err != nil {
			return contracts.Fill{}, err
		}
	}

	if _, err := e.account.ApplyFill(intent.Symbol, intent.Side, intent.Quantity, fillPrice, fee); err != nil {
		return contracts.Fill{}, err
	}

	fill := contracts.Fill{
		OrderID:    newOrderID(),
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Quantity:   intent.Quantity,
		FillPrice:  fillPrice,
		Fee:        fee,
		CashAfter:  e.account.Cash(),
		ExecutedAt: time.Now().UTC(),
	}

	if err := e.recorder.RecordFill(ctx, fill); err != nil {
		e.logger.WithError(err).WithField("order_id", fill.OrderID).Warn("Failed to record fill")
	}

	e.logger.WithFields(map[string]interface{}{
		"order_id":   fill.OrderID,
		"symbol":     fill.Symbol,
		"side":       fill.Side,
		"quantity":   fill.Quantity.String(),
		"fill_price": fill.FillPrice.String(),
	}).Info("Trade executed")

	return fill, nil
}

// fillPrice applies slippage to the quoted price: adverse in both
// directions, so buys pay up and sells receive less.
func (e *Executor) fillPrice(side contracts.Side, price float64) decimal.Decimal {
	quoted := decimal.NewFromFloat(price)
	slippage := quoted.Mul(decimal.NewFromInt(e.cfg.SlippageBps)).Div(decimal.NewFromInt(10000))

	if side == contracts.SideBuy {
		return quoted.Add(slippage)
	}
	return quoted.Sub(slippage)
}

// checkPositionCap rejects buys that would push one asset above the
// configured share of portfolio value. Other positions are counted at
// cost, which is the best available figure without a full quote set.
func (e *Executor) checkPositionCap(symbol string, quantity, fillPrice decimal.Decimal) error {
	snapshot := e.account.Snapshot()

	addedValue := quantity.Mul(fillPrice)
	positionValue := addedValue
	totalValue := snapshot.Cash

	for sym, pos := range snapshot.Positions {
		if sym == symbol {
			positionValue = positionValue.Add(pos.Quantity.Mul(fillPrice))
			totalValue = totalValue.Add(pos.Quantity.Mul(fillPrice))
			continue
		}
		totalValue = totalValue.Add(pos.CostBasis())
	}

	if totalValue.IsZero() {
		return nil
	}

	share, _ := positionValue.Div(totalValue).Float64()
	if share > e.cfg.MaxPositionPct {
		return contracts.ErrPositionLimit
	}
	return nil
}

// newOrderID returns a short random hex id, enough for a paper ledger.
func newOrderID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
