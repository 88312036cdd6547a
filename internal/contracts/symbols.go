package contracts

import "sort"

// Asset describes one entry of the supported cryptocurrency universe.
type Asset struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	CoinGeckoID string `json:"coingecko_id"`
}

// supportedAssets is the closed universe of tradable symbols.
// Symbols outside this set are rejected at the boundary with
// ErrUnsupportedSymbol instead of being silently accepted.
var supportedAssets = map[string]Asset{
	"BTC":   {Symbol: "BTC", Name: "Bitcoin", CoinGeckoID: "bitcoin"},
	"ETH":   {Symbol: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum"},
	"SOL":   {Symbol: "SOL", Name: "Solana", CoinGeckoID: "solana"},
	"ADA":   {Symbol: "ADA", Name: "Cardano", CoinGeckoID: "cardano"},
	"DOT":   {Symbol: "DOT", Name: "Polkadot", CoinGeckoID: "polkadot"},
	"LINK":  {Symbol: "LINK", Name: "Chainlink", CoinGeckoID: "chainlink"},
	"MATIC": {Symbol: "MATIC", Name: "Polygon", CoinGeckoID: "matic-network"},
	"AVAX":  {Symbol: "AVAX", Name: "Avalanche", CoinGeckoID: "avalanche-2"},
}

// IsSupported reports whether symbol is part of the tradable universe.
func IsSupported(symbol string) bool {
	_, ok := supportedAssets[symbol]
	return ok
}

// LookupAsset returns the asset metadata for symbol.
func LookupAsset(symbol string) (Asset, bool) {
	asset, ok := supportedAssets[symbol]
	return asset, ok
}

// SupportedSymbols returns the universe symbols in sorted order.
func SupportedSymbols() []string {
	symbols := make([]string, 0, len(supportedAssets))
	for symbol := range supportedAssets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// SupportedAssets returns the full universe keyed by symbol.
func SupportedAssets() map[string]Asset {
	assets := make(map[string]Asset, len(supportedAssets))
	for symbol, asset := range supportedAssets {
		assets[symbol] = asset
	}
	return assets
}
