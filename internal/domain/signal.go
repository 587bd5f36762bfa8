package domain

// Severity classifies how damaging a triggered signal is.
// VETO forces overall rejection regardless of every other signal.
type Severity string

const (
	SeverityInfo Severity = "INFO"
	SeverityWarn Severity = "WARN"
	SeverityVeto Severity = "VETO"
)

// Stable signal name keys, in declared extractor order.
const (
	SignalLiquidityDrain = "liquidity_drain"
	SignalLiquidityFloor = "liquidity_floor"
	SignalConcentration  = "concentration"
	SignalFreshness      = "freshness"
	SignalTradeFlow      = "trade_flow"
)

// SignalResult is the output of one extractor for one snapshot.
type SignalResult struct {
	Name      string   // stable signal key
	Triggered bool     // whether the unsafe condition was observed
	Severity  Severity // severity when triggered
	Detail    string   // human-readable explanation for audit output, not used by scoring
}
