package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/backend/internal/contracts"
)

// Account is the position ledger for one paper-trading account.
// All mutations are serialized through the account mutex; reads get a
// deep-copied snapshot so valuation never observes a partial update.
type Account struct {
	mu           sync.RWMutex
	cash         decimal.Decimal
	startingCash decimal.Decimal
	positions    map[string]contracts.Position
}

// NewAccount creates an account funded with startingCash.
func NewAccount(startingCash decimal.Decimal) *Account {
	return &Account{
		cash:         startingCash,
		startingCash: startingCash,
		positions:    make(map[string]contracts.Position),
	}
}

// ApplyFill applies a simulated execution to the ledger.
//
// Buys require cash >= quantity*fillPrice + fee and update the
// weighted-average cost basis. Sells require an existing position with
// enough quantity; the average price of the remainder is unchanged
// (average-cost method, not FIFO). A position that reaches zero is
// removed. Validation happens before any mutation, so a failed fill
// leaves cash and positions untouched.
func (a *Account) ApplyFill(symbol string, side contracts.Side, quantity, fillPrice, fee decimal.Decimal) (contracts.Position, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch side {
	case contracts.SideBuy:
		return a.applyBuy(symbol, quantity, fillPrice, fee)
	case contracts.SideSell:
		return a.applySell(symbol, quantity, fillPrice, fee)
	default:
		return contracts.Position{}, contracts.ErrInvalidQuantity
	}
}

func (a *Account) applyBuy(symbol string, quantity, fillPrice, fee decimal.Decimal) (contracts.Position, error) {
	cost := quantity.Mul(fillPrice).Add(fee)
	if a.cash.LessThan(cost) {
		return contracts.Position{}, contracts.ErrInsufficientFunds
	}

	pos := a.positions[symbol]
	newQty := pos.Quantity.Add(quantity)

	// avg = (old_qty*old_avg + qty*fill) / (old_qty + qty)
	totalCost := pos.Quantity.Mul(pos.AvgPrice).Add(quantity.Mul(fillPrice))
	newAvg := totalCost.Div(newQty)

	a.cash = a.cash.Sub(cost)
	updated := contracts.Position{Symbol: symbol, Quantity: newQty, AvgPrice: newAvg}
	a.positions[symbol] = updated

	return updated, nil
}

func (a *Account) applySell(symbol string, quantity, fillPrice, fee decimal.Decimal) (contracts.Position, error) {
	pos, ok := a.positions[symbol]
	if !ok || pos.Quantity.LessThan(quantity) {
		return contracts.Position{}, contracts.ErrInsufficientPosition
	}

	proceeds := quantity.Mul(fillPrice).Sub(fee)
	newQty := pos.Quantity.Sub(quantity)

	a.cash = a.cash.Add(proceeds)
	if newQty.IsZero() {
		delete(a.positions, symbol)
		return contracts.Position{Symbol: symbol, Quantity: decimal.Zero, AvgPrice: decimal.Zero}, nil
	}

	updated := contracts.Position{Symbol: symbol, Quantity: newQty, AvgPrice: pos.AvgPrice}
	a.positions[symbol] = updated

	return updated, nil
}

// Snapshot returns a deep copy of the account state.
func (a *Account) Snapshot() contracts.AccountSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	positions := make(map[string]contracts.Position, len(a.positions))
	for symbol, pos := range a.positions {
		positions[symbol] = pos
	}

	return contracts.AccountSnapshot{
		Cash:         a.cash,
		StartingCash: a.startingCash,
		Positions:    positions,
	}
}

// Cash returns the current cash balance.
func (a *Account) Cash() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

// StartingCash returns the initial funding amount.
func (a *Account) StartingCash() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.startingCash
}

// Position returns the held position for symbol, if any.
func (a *Account) Position(symbol string) (contracts.Position, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pos, ok := a.positions[symbol]
	return pos, ok
}

// Reset restores cash to startingCash and clears all positions.
// A zero startingCash keeps the previous funding amount.
func (a *Account) Reset(startingCash decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if startingCash.IsPositive() {
		a.startingCash = startingCash
	}
	a.cash = a.startingCash
	a.positions = make(map[string]contracts.Position)
}
