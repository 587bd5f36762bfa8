package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSnapshot is returned when a snapshot violates a model invariant.
// Invalid snapshots must never reach the scorer.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// PairSnapshot is one observation of a trading pair's market state.
// Snapshots are immutable once constructed; a new poll produces a new
// snapshot, never mutates an old one.
type PairSnapshot struct {
	PairID     string // pair (pool) address, opaque stable identifier
	ObservedAt int64  // capture time, Unix timestamp in milliseconds

	AgeMinutes float64 // elapsed time since pair creation

	LiquidityUSD      float64  // current USD liquidity in the pool
	LiquidityUSDPrior *float64 // liquidity at the previous observation (nil on first sighting)

	TopHolderPct *float64 // largest non-pool holder supply share, 0-100 (nil when unavailable)

	// Trade flow over the observation window
	BuyCount      int
	SellCount     int
	BuyVolumeUSD  float64
	SellVolumeUSD float64

	// Carried for alerting and paper trading, not used by scoring
	PriceUSD     float64
	MarketCapUSD *float64
}

// Validate checks all model invariants. Returns an error wrapping
// ErrInvalidSnapshot on the first violation found.
func (s *PairSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.PairID == "" {
		return fmt.Errorf("%w: empty pair_id", ErrInvalidSnapshot)
	}
	if s.ObservedAt <= 0 {
		return fmt.Errorf("%w: observed_at must be positive, got %d", ErrInvalidSnapshot, s.ObservedAt)
	}
	if s.AgeMinutes < 0 {
		return fmt.Errorf("%w: negative age_minutes %.2f", ErrInvalidSnapshot, s.AgeMinutes)
	}
	if s.LiquidityUSD < 0 {
		return fmt.Errorf("%w: negative liquidity_usd %.2f", ErrInvalidSnapshot, s.LiquidityUSD)
	}
	if s.LiquidityUSDPrior != nil && *s.LiquidityUSDPrior < 0 {
		return fmt.Errorf("%w: negative liquidity_usd_prior %.2f", ErrInvalidSnapshot, *s.LiquidityUSDPrior)
	}
	if s.TopHolderPct != nil && (*s.TopHolderPct < 0 || *s.TopHolderPct > 100) {
		return fmt.Errorf("%w: top_holder_pct %.2f outside [0, 100]", ErrInvalidSnapshot, *s.TopHolderPct)
	}
	if s.BuyCount < 0 || s.SellCount < 0 {
		return fmt.Errorf("%w: negative transaction count (buys=%d sells=%d)", ErrInvalidSnapshot, s.BuyCount, s.SellCount)
	}
	if s.BuyVolumeUSD < 0 || s.SellVolumeUSD < 0 {
		return fmt.Errorf("%w: negative volume (buy=%.2f sell=%.2f)", ErrInvalidSnapshot, s.BuyVolumeUSD, s.SellVolumeUSD)
	}
	if s.PriceUSD < 0 {
		return fmt.Errorf("%w: negative price_usd %.8f", ErrInvalidSnapshot, s.PriceUSD)
	}
	if s.MarketCapUSD != nil && *s.MarketCapUSD < 0 {
		return fmt.Errorf("%w: negative market_cap_usd %.2f", ErrInvalidSnapshot, *s.MarketCapUSD)
	}
	return nil
}
