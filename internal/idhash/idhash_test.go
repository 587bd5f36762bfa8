package idhash

import "testing"

func TestComputeVerdictID(t *testing.T) {
	got := ComputeVerdictID("pair-1", 1700000000000)

	if len(got) != 64 {
		t.Errorf("ComputeVerdictID() length = %d, want 64", len(got))
	}

	// Same inputs must produce the same id.
	if got2 := ComputeVerdictID("pair-1", 1700000000000); got != got2 {
		t.Errorf("ComputeVerdictID() not deterministic: %s != %s", got, got2)
	}

	if diff := ComputeVerdictID("pair-2", 1700000000000); diff == got {
		t.Error("different pair_id should produce different id")
	}
	if diff := ComputeVerdictID("pair-1", 1700000000001); diff == got {
		t.Error("different evaluated_at should produce different id")
	}
}

func TestComputeTradeID(t *testing.T) {
	got := ComputeTradeID("pair-1", "verdict-abc", 1700000000000)

	if len(got) != 64 {
		t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
	}

	if got2 := ComputeTradeID("pair-1", "verdict-abc", 1700000000000); got != got2 {
		t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
	}

	if diff := ComputeTradeID("pair-1", "verdict-xyz", 1700000000000); diff == got {
		t.Error("different verdict_id should produce different id")
	}
}
