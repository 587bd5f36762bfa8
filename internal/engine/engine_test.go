package engine

import (
	"errors"
	"testing"
	"time"

	"pairwatch/internal/domain"
	"pairwatch/internal/scoring"
	"pairwatch/internal/signal"
)

func fptr(v float64) *float64 { return &v }

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(signal.DefaultConfig(), scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return e.WithClock(func() time.Time { return fixedTime })
}

func healthySnapshot() *domain.PairSnapshot {
	return &domain.PairSnapshot{
		PairID:            "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		ObservedAt:        1748779200000,
		AgeMinutes:        10,
		LiquidityUSD:      50000,
		LiquidityUSDPrior: fptr(50000),
		TopHolderPct:      fptr(5),
		BuyCount:          40,
		SellCount:         20,
		BuyVolumeUSD:      10000,
		SellVolumeUSD:     3000,
		PriceUSD:          0.001,
	}
}

func TestEvaluatePair_HealthyPairApproves(t *testing.T) {
	v, err := newEngine(t).EvaluatePair(healthySnapshot(), nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionApprove {
		t.Errorf("decision: got %s, want APPROVE", v.Decision)
	}
	if v.Score != 100 {
		t.Errorf("score: got %.1f, want 100", v.Score)
	}
	if len(v.Signals) != 5 {
		t.Errorf("got %d signals, want 5", len(v.Signals))
	}
	if len(v.VerdictID) != 64 {
		t.Errorf("verdict id length = %d, want 64", len(v.VerdictID))
	}
}

func TestEvaluatePair_LiquidityDrainRejects(t *testing.T) {
	s := healthySnapshot()
	s.LiquidityUSD = 4000
	s.LiquidityUSDPrior = fptr(50000)

	v, err := newEngine(t).EvaluatePair(s, nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionReject || v.Score != 0 {
		t.Errorf("got decision=%s score=%.1f, want REJECT score=0", v.Decision, v.Score)
	}
	if !v.Vetoed() {
		t.Error("verdict should carry a veto signal")
	}
}

func TestEvaluatePair_ConcentrationCeilingRejects(t *testing.T) {
	s := healthySnapshot()
	s.TopHolderPct = fptr(35)

	v, err := newEngine(t).EvaluatePair(s, nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionReject || v.Score != 0 {
		t.Errorf("got decision=%s score=%.1f, want REJECT score=0", v.Decision, v.Score)
	}
}

func TestEvaluatePair_StackedWarningsHold(t *testing.T) {
	// Unknown holders + too new + sell-heavy flow: three WARNs, no veto.
	s := healthySnapshot()
	s.TopHolderPct = nil
	s.AgeMinutes = 2
	s.BuyVolumeUSD = 1000
	s.SellVolumeUSD = 4000

	v, err := newEngine(t).EvaluatePair(s, nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionHold {
		t.Errorf("decision: got %s, want HOLD", v.Decision)
	}
	if v.Score != 50 {
		t.Errorf("score: got %.1f, want 50", v.Score)
	}
	if v.Vetoed() {
		t.Error("warnings alone must not produce a veto")
	}
}

func TestEvaluatePair_VetoDominatesWarnings(t *testing.T) {
	// Every WARN in the book plus one veto condition.
	s := healthySnapshot()
	s.TopHolderPct = nil
	s.AgeMinutes = 2
	s.BuyVolumeUSD = 1000
	s.SellVolumeUSD = 4000
	s.LiquidityUSD = 0

	v, err := newEngine(t).EvaluatePair(s, nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionReject || v.Score != 0 {
		t.Errorf("got decision=%s score=%.1f, want REJECT score=0", v.Decision, v.Score)
	}
}

func TestEvaluatePair_ZeroLiquidityAlwaysRejects(t *testing.T) {
	// Regardless of everything else looking perfect.
	s := healthySnapshot()
	s.LiquidityUSD = 0
	s.LiquidityUSDPrior = nil

	v, err := newEngine(t).EvaluatePair(s, nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	if v.Decision != domain.DecisionReject {
		t.Errorf("decision: got %s, want REJECT", v.Decision)
	}
}

func TestEvaluatePair_Idempotent(t *testing.T) {
	e := newEngine(t)

	v1, err := e.EvaluatePair(healthySnapshot(), nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}
	v2, err := e.EvaluatePair(healthySnapshot(), nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}

	if v1.VerdictID != v2.VerdictID {
		t.Errorf("verdict ids differ: %s != %s", v1.VerdictID, v2.VerdictID)
	}
	if v1.Score != v2.Score || v1.Decision != v2.Decision {
		t.Error("re-evaluating the same snapshot must yield an identical verdict")
	}
	for i := range v1.Signals {
		if v1.Signals[i] != v2.Signals[i] {
			t.Errorf("signal %d differs between runs", i)
		}
	}
}

func TestEvaluatePair_SignalOrderStable(t *testing.T) {
	v, err := newEngine(t).EvaluatePair(healthySnapshot(), nil)
	if err != nil {
		t.Fatalf("EvaluatePair() error: %v", err)
	}

	want := []string{
		domain.SignalLiquidityDrain,
		domain.SignalLiquidityFloor,
		domain.SignalConcentration,
		domain.SignalFreshness,
		domain.SignalTradeFlow,
	}
	for i, name := range want {
		if v.Signals[i].Name != name {
			t.Errorf("signal %d: got %q, want %q", i, v.Signals[i].Name, name)
		}
	}
}

func TestEvaluatePair_InvalidInput(t *testing.T) {
	e := newEngine(t)

	if _, err := e.EvaluatePair(nil, nil); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("nil snapshot: got %v, want ErrInvalidSnapshot", err)
	}

	bad := healthySnapshot()
	bad.LiquidityUSD = -1
	if _, err := e.EvaluatePair(bad, nil); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("negative liquidity: got %v, want ErrInvalidSnapshot", err)
	}

	other := healthySnapshot()
	other.PairID = "someOtherPair"
	if _, err := e.EvaluatePair(healthySnapshot(), other); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("pair mismatch: got %v, want ErrInvalidSnapshot", err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	bad := signal.DefaultConfig()
	bad.LiquidityDrainFraction = 2
	if _, err := New(bad, scoring.DefaultConfig()); err == nil {
		t.Error("expected error for invalid signal config")
	}

	badScore := scoring.DefaultConfig()
	badScore.HoldThreshold = 95
	if _, err := New(signal.DefaultConfig(), badScore); err == nil {
		t.Error("expected error for invalid scoring config")
	}
}
