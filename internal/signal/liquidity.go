package signal

import (
	"fmt"

	"pairwatch/internal/domain"
)

// LiquidityDrain detects liquidity removal between observations.
// Liquidity removal is the single most damaging failure mode (a rug), so
// any sign of it hard-vetoes regardless of every other signal. A pool at
// zero liquidity is terminal-unsafe even without a prior observation.
type LiquidityDrain struct {
	DrainFraction float64 // fractional drop that triggers (0.50 = half the pool gone)
}

func (e *LiquidityDrain) Name() string { return domain.SignalLiquidityDrain }

func (e *LiquidityDrain) Extract(current, _ *domain.PairSnapshot) domain.SignalResult {
	if current.LiquidityUSD == 0 {
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityVeto,
			Detail:    "pool liquidity is zero",
		}
	}

	if current.LiquidityUSDPrior == nil {
		return domain.SignalResult{
			Name:     e.Name(),
			Severity: domain.SeverityInfo,
			Detail:   "no prior observation, drain not assessable",
		}
	}

	prior := *current.LiquidityUSDPrior
	if prior > 0 && current.LiquidityUSD < prior*(1-e.DrainFraction) {
		drop := (prior - current.LiquidityUSD) / prior * 100
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityVeto,
			Detail:    fmt.Sprintf("liquidity dropped %.1f%% ($%.0f -> $%.0f)", drop, prior, current.LiquidityUSD),
		}
	}

	return domain.SignalResult{
		Name:     e.Name(),
		Severity: domain.SeverityInfo,
		Detail:   fmt.Sprintf("liquidity stable ($%.0f -> $%.0f)", prior, current.LiquidityUSD),
	}
}

// LiquidityFloor rejects pools too shallow to exit. Below the floor,
// slippage and exit risk dominate regardless of behavior.
type LiquidityFloor struct {
	MinLiquidityUSD float64
}

func (e *LiquidityFloor) Name() string { return domain.SignalLiquidityFloor }

func (e *LiquidityFloor) Extract(current, _ *domain.PairSnapshot) domain.SignalResult {
	if current.LiquidityUSD < e.MinLiquidityUSD {
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityVeto,
			Detail:    fmt.Sprintf("liquidity $%.0f below floor $%.0f", current.LiquidityUSD, e.MinLiquidityUSD),
		}
	}
	return domain.SignalResult{
		Name:     e.Name(),
		Severity: domain.SeverityInfo,
		Detail:   fmt.Sprintf("liquidity $%.0f above floor", current.LiquidityUSD),
	}
}

// Compile-time interface checks.
var (
	_ Extractor = (*LiquidityDrain)(nil)
	_ Extractor = (*LiquidityFloor)(nil)
)
