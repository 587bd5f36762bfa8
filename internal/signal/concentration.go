package signal

import (
	"fmt"

	"pairwatch/internal/domain"
)

// Concentration flags supply concentrated in a single holder, a proxy for
// dump risk. Missing holder data is treated as WARN, not VETO: we cannot
// hard-fail on absent information, but we cannot reward it either.
type Concentration struct {
	WarnPct float64 // WARN at or above
	VetoPct float64 // VETO at or above
}

func (e *Concentration) Name() string { return domain.SignalConcentration }

func (e *Concentration) Extract(current, _ *domain.PairSnapshot) domain.SignalResult {
	if current.TopHolderPct == nil {
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityWarn,
			Detail:    "holder distribution unavailable",
		}
	}

	pct := *current.TopHolderPct
	switch {
	case pct >= e.VetoPct:
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityVeto,
			Detail:    fmt.Sprintf("top holder owns %.1f%% (ceiling %.1f%%)", pct, e.VetoPct),
		}
	case pct >= e.WarnPct:
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityWarn,
			Detail:    fmt.Sprintf("top holder owns %.1f%%", pct),
		}
	default:
		return domain.SignalResult{
			Name:     e.Name(),
			Severity: domain.SeverityInfo,
			Detail:   fmt.Sprintf("top holder owns %.1f%%", pct),
		}
	}
}

var _ Extractor = (*Concentration)(nil)
