package memory

import (
	"context"
	"errors"
	"testing"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

func testTrade(id, pairID string, openedAt int64, status domain.TradeStatus) *domain.PaperTrade {
	return &domain.PaperTrade{
		TradeID:     id,
		PairID:      pairID,
		VerdictID:   "v-" + id,
		OpenedAt:    openedAt,
		EntryPrice:  0.001,
		PositionUSD: 50,
		TokensHeld:  50000,
		EntryTokens: 50000,
		Status:      status,
	}
}

func TestPaperTradeStore_InsertAndGet(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	tr := testTrade("t1", "pair-1", 1704067200000, domain.TradeStatusOpen)

	if err := store.Insert(ctx, tr); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PairID != tr.PairID || got.EntryPrice != tr.EntryPrice {
		t.Errorf("trade mismatch: got %+v", got)
	}
}

func TestPaperTradeStore_DuplicateKey(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	tr := testTrade("t1", "pair-1", 1704067200000, domain.TradeStatusOpen)

	if err := store.Insert(ctx, tr); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, tr); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPaperTradeStore_Update(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	tr := testTrade("t1", "pair-1", 1704067200000, domain.TradeStatusOpen)
	if err := store.Insert(ctx, tr); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	tr.Status = domain.TradeStatusClosed
	tr.ExitReason = domain.ExitReasonTrailingStop
	if err := store.Update(ctx, tr); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "t1")
	if got.Status != domain.TradeStatusClosed {
		t.Errorf("status not updated: got %s", got.Status)
	}
	if got.ExitReason != domain.ExitReasonTrailingStop {
		t.Errorf("exit reason not updated: got %s", got.ExitReason)
	}
}

func TestPaperTradeStore_UpdateMissing(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	tr := testTrade("t1", "pair-1", 1704067200000, domain.TradeStatusOpen)
	if err := store.Update(ctx, tr); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPaperTradeStore_GetOpen(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	store.Insert(ctx, testTrade("t2", "pair-2", 2000, domain.TradeStatusOpen))
	store.Insert(ctx, testTrade("t1", "pair-1", 1000, domain.TradeStatusOpen))
	store.Insert(ctx, testTrade("t3", "pair-3", 3000, domain.TradeStatusClosed))

	got, err := store.GetOpen(ctx)
	if err != nil {
		t.Fatalf("GetOpen failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d open trades, want 2", len(got))
	}
	if got[0].TradeID != "t1" || got[1].TradeID != "t2" {
		t.Errorf("open trades not ordered by opened_at ASC: %s, %s", got[0].TradeID, got[1].TradeID)
	}
}

func TestPaperTradeStore_GetByPairID(t *testing.T) {
	store := NewPaperTradeStore()
	ctx := context.Background()

	store.Insert(ctx, testTrade("t1", "pair-1", 1000, domain.TradeStatusClosed))
	store.Insert(ctx, testTrade("t2", "pair-1", 2000, domain.TradeStatusOpen))
	store.Insert(ctx, testTrade("t3", "pair-2", 1500, domain.TradeStatusOpen))

	got, err := store.GetByPairID(ctx, "pair-1")
	if err != nil {
		t.Fatalf("GetByPairID failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d trades, want 2", len(got))
	}
}
