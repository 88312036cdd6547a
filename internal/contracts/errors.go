package contracts

import "errors"

// Trading error taxonomy. Ledger-mutating errors are always raised
// before any state change, so a failed trade leaves the account intact.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrUnsupportedSymbol    = errors.New("unsupported symbol")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrTradeTooSmall        = errors.New("trade value below minimum")
	ErrPositionLimit        = errors.New("position size limit exceeded")
)

// Market-data errors. Both degrade the response instead of failing it:
// a missing price excludes the position from valuation, an upstream
// timeout falls back to cached quotes or an empty news list.
var (
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrUpstreamTimeout  = errors.New("upstream request timed out")
)
