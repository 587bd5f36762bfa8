package dexscreener

// Response is the top-level payload returned by the DEX Screener pairs
// endpoints. Single-pair lookups populate Pair, searches populate Pairs.
type Response struct {
	SchemaVersion string `json:"schemaVersion"`
	Pair          *Pair  `json:"pair"`
	Pairs         []Pair `json:"pairs"`
}

// Pair contains detailed information about a trading pair.
type Pair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	URL           string      `json:"url"`
	PairAddress   string      `json:"pairAddress"`
	BaseToken     Token       `json:"baseToken"`
	QuoteToken    Token       `json:"quoteToken"`
	PriceNative   string      `json:"priceNative"`
	PriceUsd      string      `json:"priceUsd"`
	Txns          Txns        `json:"txns"`
	Volume        Volume      `json:"volume"`
	PriceChange   PriceChange `json:"priceChange"`
	Liquidity     *Liquidity  `json:"liquidity"` // pointer, the API omits it for dead pools
	Fdv           float64     `json:"fdv"`
	MarketCap     float64     `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"` // unix ms
}

// Token represents one side of a trading pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity represents the pooled liquidity for a pair.
type Liquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// Txns represents transaction counts over standard windows.
type Txns struct {
	M5  TxnSummary `json:"m5"`
	H1  TxnSummary `json:"h1"`
	H6  TxnSummary `json:"h6"`
	H24 TxnSummary `json:"h24"`
}

// TxnSummary contains buy and sell counts for one window.
type TxnSummary struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Volume represents trading volume in USD over standard windows.
type Volume struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PriceChange represents price change percentage over standard windows.
type PriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}
