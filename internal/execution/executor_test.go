package execution

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/pkg/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memRecorder struct {
	fills []contracts.Fill
}

func (m *memRecorder) RecordFill(_ context.Context, fill contracts.Fill) error {
	m.fills = append(m.fills, fill)
	return nil
}

func newTestExecutor(startingCash string, cfg Config) (*Executor, *ledger.Account, *memRecorder) {
	account := ledger.NewAccount(dec(startingCash))
	recorder := &memRecorder{}
	return New(account, recorder, cfg, logger.NewNop()), account, recorder
}

func defaultConfig() Config {
	return Config{SlippageBps: 5, FeeBps: 10, MinTradeUSD: 10}
}

func TestExecute_BuyScenario(t *testing.T) {
	// $10,000 start, buy 0.1 BTC at $50,000 with 5 bps slippage and
	// 10 bps fee: fill 50,025, fee 5.0025, cash 4,992.4975.
	executor, account, recorder := newTestExecutor("10000", defaultConfig())

	fill, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol:   "BTC",
		Side:     contracts.SideBuy,
		Quantity: dec("0.1"),
	}, contracts.Quote{Symbol: "BTC", Price: 50000})
	require.NoError(t, err)

	assert.True(t, fill.FillPrice.Equal(dec("50025")), "fill price = %s", fill.FillPrice)
	assert.True(t, fill.Fee.Equal(dec("5.0025")), "fee = %s", fill.Fee)
	assert.True(t, fill.CashAfter.Equal(dec("4992.4975")), "cash after = %s", fill.CashAfter)
	assert.True(t, account.Cash().Equal(dec("4992.4975")))

	require.Len(t, recorder.fills, 1)
	assert.Equal(t, fill.OrderID, recorder.fills[0].OrderID)
	assert.NotEmpty(t, fill.OrderID)
}

func TestExecute_SellSlippageIsAdverse(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "ETH", Side: contracts.SideBuy, Quantity: dec("1"),
	}, contracts.Quote{Symbol: "ETH", Price: 2800})
	require.NoError(t, err)

	fill, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "ETH", Side: contracts.SideSell, Quantity: dec("1"),
	}, contracts.Quote{Symbol: "ETH", Price: 2800})
	require.NoError(t, err)

	// 2800 * (1 - 0.0005) = 2798.6
	assert.True(t, fill.FillPrice.Equal(dec("2798.6")), "fill price = %s", fill.FillPrice)
}

func TestExecute_UnsupportedSymbol(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "DOGE", Side: contracts.SideBuy, Quantity: dec("1"),
	}, contracts.Quote{Symbol: "DOGE", Price: 0.1})
	require.ErrorIs(t, err, contracts.ErrUnsupportedSymbol)
}

func TestExecute_InvalidQuantity(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	for _, qty := range []string{"0", "-1"} {
		_, err := executor.Execute(context.Background(), contracts.TradeIntent{
			Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec(qty),
		}, contracts.Quote{Symbol: "BTC", Price: 45000})
		require.ErrorIs(t, err, contracts.ErrInvalidQuantity, "quantity %s", qty)
	}

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.Side("hold"), Quantity: dec("1"),
	}, contracts.Quote{Symbol: "BTC", Price: 45000})
	require.ErrorIs(t, err, contracts.ErrInvalidQuantity)
}

func TestExecute_MissingPrice(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec("1"),
	}, contracts.Quote{})
	require.ErrorIs(t, err, contracts.ErrPriceUnavailable)
}

func TestExecute_TradeTooSmall(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "ADA", Side: contracts.SideBuy, Quantity: dec("10"),
	}, contracts.Quote{Symbol: "ADA", Price: 0.45})
	require.ErrorIs(t, err, contracts.ErrTradeTooSmall)
}

func TestExecute_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	executor, account, recorder := newTestExecutor("1000", defaultConfig())

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec("1"),
	}, contracts.Quote{Symbol: "BTC", Price: 45000})
	require.ErrorIs(t, err, contracts.ErrInsufficientFunds)

	assert.True(t, account.Cash().Equal(dec("1000")))
	assert.Empty(t, recorder.fills)
}

func TestExecute_PositionCap(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPositionPct = 0.3
	executor, _, _ := newTestExecutor("10000", cfg)

	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec("0.1"),
	}, contracts.Quote{Symbol: "BTC", Price: 50000})
	require.ErrorIs(t, err, contracts.ErrPositionLimit)

	// Under the cap it goes through
	_, err = executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec("0.05"),
	}, contracts.Quote{Symbol: "BTC", Price: 50000})
	require.NoError(t, err)
}

func TestExecute_PositionCapDisabledByDefault(t *testing.T) {
	executor, _, _ := newTestExecutor("10000", defaultConfig())

	// 50% of the portfolio in one asset is fine with the cap off
	_, err := executor.Execute(context.Background(), contracts.TradeIntent{
		Symbol: "BTC", Side: contracts.SideBuy, Quantity: dec("0.1"),
	}, contracts.Quote{Symbol: "BTC", Price: 50000})
	require.NoError(t, err)
}
