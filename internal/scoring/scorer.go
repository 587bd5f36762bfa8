// Package scoring turns a set of extracted signals into a score and a
// trading decision. The model is deliberately conservative: any VETO
// short-circuits to REJECT with score zero, and triggered WARN signals
// subtract fixed penalties from a base of 100. Nothing ever adds points.
package scoring

import "pairwatch/internal/domain"

// Result is the outcome of scoring one signal set.
type Result struct {
	Score    float64
	Decision domain.Decision
}

// Scorer applies the veto-then-penalty model.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Evaluate folds signals into a Result. An empty signal set scores the full
// base and approves: the caller decides which extractors run, not the scorer.
func (s *Scorer) Evaluate(signals []domain.SignalResult) Result {
	for _, sig := range signals {
		if sig.Triggered && sig.Severity == domain.SeverityVeto {
			return Result{Score: 0, Decision: domain.DecisionReject}
		}
	}

	score := float64(baseScore)
	for _, sig := range signals {
		if sig.Triggered && sig.Severity == domain.SeverityWarn {
			score -= s.cfg.WarnPenalties[sig.Name]
		}
	}
	if score < 0 {
		score = 0
	}

	return Result{Score: score, Decision: s.decide(score)}
}

func (s *Scorer) decide(score float64) domain.Decision {
	switch {
	case score >= s.cfg.ApproveThreshold:
		return domain.DecisionApprove
	case score >= s.cfg.HoldThreshold:
		return domain.DecisionHold
	default:
		return domain.DecisionReject
	}
}
