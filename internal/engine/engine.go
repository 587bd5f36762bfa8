// Package engine wires snapshot validation, signal extraction and scoring
// into a single evaluation step. One call in, one verdict out, no I/O.
package engine

import (
	"fmt"
	"time"

	"pairwatch/internal/domain"
	"pairwatch/internal/idhash"
	"pairwatch/internal/scoring"
	"pairwatch/internal/signal"
)

// Engine evaluates pair snapshots into verdicts. Extractors run in a fixed
// order so two runs over the same snapshot produce byte-identical verdicts.
type Engine struct {
	extractors []signal.Extractor
	scorer     *scoring.Scorer
	clock      func() time.Time
}

// New builds an Engine from validated signal and scoring configs.
func New(sigCfg signal.Config, scoreCfg scoring.Config) (*Engine, error) {
	if err := sigCfg.Validate(); err != nil {
		return nil, fmt.Errorf("signal config: %w", err)
	}
	if err := scoreCfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{
		extractors: signal.Extractors(sigCfg),
		scorer:     scoring.NewScorer(scoreCfg),
		clock:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// EvaluatePair runs every extractor over the current snapshot and folds the
// results into a verdict. previous may be nil (first sighting of a pair);
// when present it must describe the same pair. The verdict id is derived
// from (pair_id, evaluated_at), so re-evaluation is idempotent.
func (e *Engine) EvaluatePair(current, previous *domain.PairSnapshot) (*domain.Verdict, error) {
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("current snapshot: %w", err)
	}
	if previous != nil {
		if err := previous.Validate(); err != nil {
			return nil, fmt.Errorf("previous snapshot: %w", err)
		}
		if previous.PairID != current.PairID {
			return nil, fmt.Errorf("%w: previous snapshot is for pair %s, current is for %s",
				domain.ErrInvalidSnapshot, previous.PairID, current.PairID)
		}
	}

	signals := make([]domain.SignalResult, 0, len(e.extractors))
	for _, ex := range e.extractors {
		signals = append(signals, ex.Extract(current, previous))
	}

	result := e.scorer.Evaluate(signals)
	evaluatedAt := e.clock().UnixMilli()

	return &domain.Verdict{
		VerdictID:   idhash.ComputeVerdictID(current.PairID, evaluatedAt),
		PairID:      current.PairID,
		EvaluatedAt: evaluatedAt,
		Score:       result.Score,
		Decision:    result.Decision,
		Signals:     signals,
	}, nil
}
