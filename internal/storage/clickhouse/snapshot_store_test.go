package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

func testSnapshot(pairID string, observedAt int64) *domain.PairSnapshot {
	return &domain.PairSnapshot{
		PairID:            pairID,
		ObservedAt:        observedAt,
		AgeMinutes:        10,
		LiquidityUSD:      50000,
		LiquidityUSDPrior: ptr(48000.0),
		TopHolderPct:      ptr(5.0),
		BuyCount:          40,
		SellCount:         20,
		BuyVolumeUSD:      10000,
		SellVolumeUSD:     3000,
		PriceUSD:          0.001,
		MarketCapUSD:      ptr(1200000.0),
	}
}

func TestSnapshotStore_InsertBulkAndGetByPairID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	batch := []*domain.PairSnapshot{
		testSnapshot("pair-1", 2000),
		testSnapshot("pair-1", 1000),
		testSnapshot("pair-2", 1500),
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	snapshots, err := store.GetByPairID(ctx, "pair-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, int64(1000), snapshots[0].ObservedAt, "snapshots must be ordered by observed_at ASC")
	assert.Equal(t, int64(2000), snapshots[1].ObservedAt)

	got := snapshots[0]
	assert.Equal(t, "pair-1", got.PairID)
	assert.Equal(t, 50000.0, got.LiquidityUSD)
	require.NotNil(t, got.LiquidityUSDPrior)
	assert.Equal(t, 48000.0, *got.LiquidityUSDPrior)
	require.NotNil(t, got.TopHolderPct)
	assert.Equal(t, 5.0, *got.TopHolderPct)
	assert.Equal(t, 40, got.BuyCount)
	assert.Equal(t, 20, got.SellCount)
}

func TestSnapshotStore_NullableFields(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	snap := testSnapshot("pair-1", 1000)
	snap.LiquidityUSDPrior = nil
	snap.TopHolderPct = nil
	snap.MarketCapUSD = nil
	require.NoError(t, store.InsertBulk(ctx, []*domain.PairSnapshot{snap}))

	snapshots, err := store.GetByPairID(ctx, "pair-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	assert.Nil(t, snapshots[0].LiquidityUSDPrior)
	assert.Nil(t, snapshots[0].TopHolderPct)
	assert.Nil(t, snapshots[0].MarketCapUSD)
}

func TestSnapshotStore_DuplicateDetection(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.PairSnapshot{testSnapshot("pair-1", 1000)}))

	// Duplicate against existing rows.
	err := store.InsertBulk(ctx, []*domain.PairSnapshot{testSnapshot("pair-1", 1000)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Intra-batch duplicate.
	err = store.InsertBulk(ctx, []*domain.PairSnapshot{
		testSnapshot("pair-1", 2000),
		testSnapshot("pair-1", 2000),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.PairSnapshot{
		testSnapshot("pair-1", 1000),
		testSnapshot("pair-1", 2000),
		testSnapshot("pair-1", 3000),
	}))

	snapshots, err := store.GetByTimeRange(ctx, "pair-1", 1000, 2000)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2, "range is inclusive on both ends")
}

func TestSnapshotStore_EmptyBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	assert.NoError(t, store.InsertBulk(context.Background(), nil))
}
