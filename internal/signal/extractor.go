// Package signal contains the risk signal extractors.
// Each extractor is a pure function of one or two snapshots; none of them
// read the wall clock or any shared state, so evaluation is deterministic.
package signal

import (
	"fmt"

	"pairwatch/internal/domain"
)

// epsilon guards division when the buy side of the flow is zero.
const epsilon = 1e-9

// Extractor computes one named risk signal from the current snapshot and,
// when available, the immediately preceding snapshot for the same pair.
type Extractor interface {
	// Name returns the stable signal key this extractor produces.
	Name() string

	// Extract computes the signal. previous is nil on first sighting.
	Extract(current, previous *domain.PairSnapshot) domain.SignalResult
}

// Config holds the extractor thresholds. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	MinLiquidityUSD        float64 // liquidity-floor VETO below this
	LiquidityDrainFraction float64 // fractional drop that VETOs (0.50 = half the pool gone)
	TopHolderWarnPct       float64 // concentration WARN at or above
	TopHolderVetoPct       float64 // concentration VETO at or above
	FreshnessMinMinutes    float64 // WARN below (unproven)
	FreshnessMaxMinutes    float64 // WARN above (hype already priced in)
	SellBuyRatioWarn       float64 // trade-flow WARN when sell/buy exceeds
}

// DefaultConfig returns the default extractor thresholds.
func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD:        2500,
		LiquidityDrainFraction: 0.50,
		TopHolderWarnPct:       10,
		TopHolderVetoPct:       20,
		FreshnessMinMinutes:    5,
		FreshnessMaxMinutes:    120,
		SellBuyRatioWarn:       2.0,
	}
}

// Validate checks the thresholds are internally consistent.
func (c Config) Validate() error {
	if c.MinLiquidityUSD < 0 {
		return fmt.Errorf("min_liquidity_usd must be >= 0, got %.2f", c.MinLiquidityUSD)
	}
	if c.LiquidityDrainFraction <= 0 || c.LiquidityDrainFraction > 1 {
		return fmt.Errorf("liquidity_drain_fraction must be in (0, 1], got %.2f", c.LiquidityDrainFraction)
	}
	if c.TopHolderWarnPct < 0 || c.TopHolderVetoPct > 100 || c.TopHolderWarnPct > c.TopHolderVetoPct {
		return fmt.Errorf("holder thresholds invalid: warn %.2f, veto %.2f", c.TopHolderWarnPct, c.TopHolderVetoPct)
	}
	if c.FreshnessMinMinutes < 0 || c.FreshnessMinMinutes >= c.FreshnessMaxMinutes {
		return fmt.Errorf("freshness window invalid: [%.2f, %.2f]", c.FreshnessMinMinutes, c.FreshnessMaxMinutes)
	}
	if c.SellBuyRatioWarn <= 0 {
		return fmt.Errorf("sell_buy_ratio_warn must be > 0, got %.2f", c.SellBuyRatioWarn)
	}
	return nil
}

// Extractors returns the full extractor set in declared order:
// liquidity-drain, liquidity-floor, concentration, freshness, trade-flow.
// The order fixes the reported signals sequence; it has no effect on the
// final decision.
func Extractors(cfg Config) []Extractor {
	return []Extractor{
		&LiquidityDrain{DrainFraction: cfg.LiquidityDrainFraction},
		&LiquidityFloor{MinLiquidityUSD: cfg.MinLiquidityUSD},
		&Concentration{WarnPct: cfg.TopHolderWarnPct, VetoPct: cfg.TopHolderVetoPct},
		&Freshness{MinMinutes: cfg.FreshnessMinMinutes, MaxMinutes: cfg.FreshnessMaxMinutes},
		&TradeFlow{SellBuyRatioWarn: cfg.SellBuyRatioWarn},
	}
}
