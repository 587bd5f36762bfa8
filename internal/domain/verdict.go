package domain

// Decision is the final classification for a pair at a point in time.
type Decision string

const (
	DecisionReject  Decision = "REJECT"
	DecisionHold    Decision = "HOLD"
	DecisionApprove Decision = "APPROVE"
)

// Verdict is the scoring engine's output for one evaluation.
// Verdicts are never mutated, only superseded by later verdicts
// for the same pair.
type Verdict struct {
	VerdictID   string   // deterministic hash, see idhash
	PairID      string   // pair address the verdict applies to
	EvaluatedAt int64    // Unix timestamp in milliseconds
	Score       float64  // 0-100, higher = safer
	Decision    Decision // REJECT | HOLD | APPROVE

	// Signals in extractor evaluation order, for reproducible audit trails.
	Signals []SignalResult
}

// Vetoed reports whether any VETO-severity signal triggered.
func (v *Verdict) Vetoed() bool {
	for _, s := range v.Signals {
		if s.Triggered && s.Severity == SeverityVeto {
			return true
		}
	}
	return false
}
