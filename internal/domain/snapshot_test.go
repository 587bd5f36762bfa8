package domain

import (
	"errors"
	"testing"
)

func validSnapshot() *PairSnapshot {
	prior := 50000.0
	top := 5.0
	return &PairSnapshot{
		PairID:            "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		ObservedAt:        1700000000000,
		AgeMinutes:        10,
		LiquidityUSD:      50000,
		LiquidityUSDPrior: &prior,
		TopHolderPct:      &top,
		BuyCount:          42,
		SellCount:         17,
		BuyVolumeUSD:      10000,
		SellVolumeUSD:     3000,
		PriceUSD:          0.0012,
	}
}

func TestSnapshotValidate_OK(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
}

func TestSnapshotValidate_OptionalFieldsAbsent(t *testing.T) {
	s := validSnapshot()
	s.LiquidityUSDPrior = nil
	s.TopHolderPct = nil
	s.MarketCapUSD = nil

	if err := s.Validate(); err != nil {
		t.Fatalf("snapshot with absent optional fields rejected: %v", err)
	}
}

func TestSnapshotValidate_Violations(t *testing.T) {
	negative := -1.0
	over := 101.0

	tests := []struct {
		name   string
		mutate func(*PairSnapshot)
	}{
		{"empty pair_id", func(s *PairSnapshot) { s.PairID = "" }},
		{"zero observed_at", func(s *PairSnapshot) { s.ObservedAt = 0 }},
		{"negative age", func(s *PairSnapshot) { s.AgeMinutes = -0.5 }},
		{"negative liquidity", func(s *PairSnapshot) { s.LiquidityUSD = -100 }},
		{"negative prior liquidity", func(s *PairSnapshot) { s.LiquidityUSDPrior = &negative }},
		{"holder pct below range", func(s *PairSnapshot) { s.TopHolderPct = &negative }},
		{"holder pct above range", func(s *PairSnapshot) { s.TopHolderPct = &over }},
		{"negative buy count", func(s *PairSnapshot) { s.BuyCount = -1 }},
		{"negative sell count", func(s *PairSnapshot) { s.SellCount = -1 }},
		{"negative buy volume", func(s *PairSnapshot) { s.BuyVolumeUSD = -5 }},
		{"negative sell volume", func(s *PairSnapshot) { s.SellVolumeUSD = -5 }},
		{"negative price", func(s *PairSnapshot) { s.PriceUSD = -0.01 }},
		{"negative market cap", func(s *PairSnapshot) { s.MarketCapUSD = &negative }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)

			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("error %v does not wrap ErrInvalidSnapshot", err)
			}
		})
	}
}

func TestSnapshotValidate_NilSnapshot(t *testing.T) {
	var s *PairSnapshot
	if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("nil snapshot: expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestVerdictVetoed(t *testing.T) {
	v := &Verdict{Signals: []SignalResult{
		{Name: SignalFreshness, Triggered: true, Severity: SeverityWarn},
		{Name: SignalTradeFlow, Triggered: false, Severity: SeverityInfo},
	}}
	if v.Vetoed() {
		t.Error("verdict without triggered VETO reported as vetoed")
	}

	v.Signals = append(v.Signals, SignalResult{Name: SignalLiquidityDrain, Triggered: true, Severity: SeverityVeto})
	if !v.Vetoed() {
		t.Error("verdict with triggered VETO not reported as vetoed")
	}
}
