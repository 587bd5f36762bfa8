package signal

import (
	"fmt"

	"pairwatch/internal/domain"
)

// Freshness flags pairs outside the acceptable age window. Too new means
// unproven with no trade history; too old means the hype is already priced
// in. Never more than WARN on its own.
type Freshness struct {
	MinMinutes float64
	MaxMinutes float64
}

func (e *Freshness) Name() string { return domain.SignalFreshness }

func (e *Freshness) Extract(current, _ *domain.PairSnapshot) domain.SignalResult {
	age := current.AgeMinutes
	switch {
	case age < e.MinMinutes:
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityWarn,
			Detail:    fmt.Sprintf("pair is %.1f min old, below %.1f min minimum", age, e.MinMinutes),
		}
	case age > e.MaxMinutes:
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityWarn,
			Detail:    fmt.Sprintf("pair is %.1f min old, above %.1f min maximum", age, e.MaxMinutes),
		}
	default:
		return domain.SignalResult{
			Name:     e.Name(),
			Severity: domain.SeverityInfo,
			Detail:   fmt.Sprintf("pair age %.1f min within window", age),
		}
	}
}

var _ Extractor = (*Freshness)(nil)
