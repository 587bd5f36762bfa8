package clickhouse

import (
	"context"
	"fmt"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Snapshots are high-volume append-only timeseries data, one row per
// (pair, observation), so they go to ClickHouse rather than Postgres.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (pair_id, observed_at).
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PairSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		pairID     string
		observedAt int64
	}
	seen := make(map[key]struct{})
	for _, snap := range snapshots {
		if snap == nil || snap.PairID == "" {
			return storage.ErrInvalidInput
		}
		k := key{snap.PairID, snap.ObservedAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.PairID, snap.ObservedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pair_snapshots (
			pair_id, observed_at, age_minutes,
			liquidity_usd, liquidity_usd_prior, top_holder_pct,
			buy_count, sell_count, buy_volume_usd, sell_volume_usd,
			price_usd, market_cap_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.PairID, uint64(snap.ObservedAt), snap.AgeMinutes,
			snap.LiquidityUSD, snap.LiquidityUSDPrior, snap.TopHolderPct,
			uint32(snap.BuyCount), uint32(snap.SellCount), snap.BuyVolumeUSD, snap.SellVolumeUSD,
			snap.PriceUSD, snap.MarketCapUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPairID retrieves all snapshots for a pair, ordered by observed_at ASC.
func (s *SnapshotStore) GetByPairID(ctx context.Context, pairID string) ([]*domain.PairSnapshot, error) {
	query := `
		SELECT pair_id, observed_at, age_minutes,
			liquidity_usd, liquidity_usd_prior, top_holder_pct,
			buy_count, sell_count, buy_volume_usd, sell_volume_usd,
			price_usd, market_cap_usd
		FROM pair_snapshots
		WHERE pair_id = ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, pairID)
	if err != nil {
		return nil, fmt.Errorf("query by pair id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots for a pair within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, pairID string, start, end int64) ([]*domain.PairSnapshot, error) {
	query := `
		SELECT pair_id, observed_at, age_minutes,
			liquidity_usd, liquidity_usd_prior, top_holder_pct,
			buy_count, sell_count, buy_volume_usd, sell_volume_usd,
			price_usd, market_cap_usd
		FROM pair_snapshots
		WHERE pair_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, pairID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *SnapshotStore) exists(ctx context.Context, pairID string, observedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM pair_snapshots
		WHERE pair_id = ? AND observed_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, pairID, uint64(observedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows needed for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.PairSnapshot, error) {
	var snapshots []*domain.PairSnapshot

	for rows.Next() {
		var snap domain.PairSnapshot
		var observedAt uint64
		var buyCount, sellCount uint32

		err := rows.Scan(
			&snap.PairID, &observedAt, &snap.AgeMinutes,
			&snap.LiquidityUSD, &snap.LiquidityUSDPrior, &snap.TopHolderPct,
			&buyCount, &sellCount, &snap.BuyVolumeUSD, &snap.SellVolumeUSD,
			&snap.PriceUSD, &snap.MarketCapUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.ObservedAt = int64(observedAt)
		snap.BuyCount = int(buyCount)
		snap.SellCount = int(sellCount)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
