package scoring

import (
	"fmt"

	"pairwatch/internal/domain"
)

// Config holds the penalty weights and decision thresholds. Scores start at
// a base of 100 and only ever go down; a veto bypasses arithmetic entirely.
type Config struct {
	// WarnPenalties maps signal name to the points subtracted when that
	// signal triggers at WARN severity. Signals absent from the map cost
	// nothing, which is how a new extractor can be rolled out dark.
	WarnPenalties map[string]float64

	ApproveThreshold float64 // score >= this -> APPROVE
	HoldThreshold    float64 // score >= this -> HOLD, else REJECT
}

const baseScore = 100

// DefaultConfig returns the penalty table used in production. The weights
// rank dump-risk signals (concentration, drain) above timing signals
// (freshness) so that two structural warnings alone push a pair to HOLD.
func DefaultConfig() Config {
	return Config{
		WarnPenalties: map[string]float64{
			domain.SignalLiquidityDrain: 25,
			domain.SignalLiquidityFloor: 25,
			domain.SignalConcentration:  25,
			domain.SignalFreshness:      10,
			domain.SignalTradeFlow:      15,
		},
		ApproveThreshold: 80,
		HoldThreshold:    50,
	}
}

func (c Config) Validate() error {
	if c.ApproveThreshold <= c.HoldThreshold {
		return fmt.Errorf("approve threshold %.1f must exceed hold threshold %.1f", c.ApproveThreshold, c.HoldThreshold)
	}
	if c.HoldThreshold < 0 || c.ApproveThreshold > baseScore {
		return fmt.Errorf("thresholds must lie within [0, %d]", baseScore)
	}
	for name, penalty := range c.WarnPenalties {
		if penalty < 0 {
			return fmt.Errorf("penalty for %q is negative (%.1f)", name, penalty)
		}
	}
	return nil
}
