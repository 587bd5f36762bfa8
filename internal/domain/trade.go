package domain

// TradeStatus tracks the lifecycle of a paper trade.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Exit reason codes
const (
	ExitReasonTrailingStop = "TRAILING_STOP"
	ExitReasonTargetHit    = "TARGET_HIT"
	ExitReasonManualClose  = "MANUAL_CLOSE"
)

// PaperTrade represents a simulated position opened on an APPROVE verdict.
// Corresponds to the paper_trades table.
type PaperTrade struct {
	TradeID   string // deterministic hash
	PairID    string // pair the position was opened on
	VerdictID string // verdict that triggered the entry

	// Entry
	OpenedAt     int64   // Unix timestamp in milliseconds
	EntryPrice   float64 // price at entry
	PositionUSD  float64 // capital allocated at entry
	TokensHeld   float64 // remaining token quantity
	EntryTokens  float64 // token quantity at entry
	TargetPrice  float64 // take-profit target
	NextLadderAt float64 // next doubling-ladder trigger price

	// Running state
	CurrentPrice float64
	PeakPrice    float64 // high-water mark for the trailing stop
	RealizedUSD  float64 // proceeds banked from partial and full sells
	TargetHit    bool

	// Close
	Status     TradeStatus
	ClosedAt   int64  // 0 while open
	ExitReason string // empty while open
	NetPnLUSD  float64
}
