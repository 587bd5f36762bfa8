package storage

import (
	"context"

	"pairwatch/internal/domain"
)

// VerdictStore provides access to verdicts storage.
type VerdictStore interface {
	// Insert adds a new verdict. Returns ErrDuplicateKey if verdict_id exists.
	Insert(ctx context.Context, v *domain.Verdict) error

	// GetByID retrieves a verdict by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, verdictID string) (*domain.Verdict, error)

	// GetByPairID retrieves all verdicts for a pair, ordered by evaluated_at ASC.
	GetByPairID(ctx context.Context, pairID string) ([]*domain.Verdict, error)

	// GetLatestByPairID retrieves the most recent verdict for a pair.
	// Returns ErrNotFound if the pair has never been evaluated.
	GetLatestByPairID(ctx context.Context, pairID string) (*domain.Verdict, error)

	// GetByDecision retrieves all verdicts with a given decision,
	// ordered by evaluated_at ASC.
	GetByDecision(ctx context.Context, decision domain.Decision) ([]*domain.Verdict, error)
}

// PaperTradeStore provides access to paper_trades storage.
type PaperTradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.PaperTrade) error

	// Update replaces an existing trade. Returns ErrNotFound if not exists.
	// Trades are the only mutable records: position state changes on every tick.
	Update(ctx context.Context, t *domain.PaperTrade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.PaperTrade, error)

	// GetOpen retrieves all open trades, ordered by opened_at ASC.
	GetOpen(ctx context.Context) ([]*domain.PaperTrade, error)

	// GetByPairID retrieves all trades for a pair, ordered by opened_at ASC.
	GetByPairID(ctx context.Context, pairID string) ([]*domain.PaperTrade, error)
}

// SnapshotStore provides access to pair_snapshots timeseries storage.
type SnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
	// (pair_id, observed_at).
	InsertBulk(ctx context.Context, snapshots []*domain.PairSnapshot) error

	// GetByPairID retrieves all snapshots for a pair, ordered by observed_at ASC.
	GetByPairID(ctx context.Context, pairID string) ([]*domain.PairSnapshot, error)

	// GetByTimeRange retrieves snapshots for a pair within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, pairID string, start, end int64) ([]*domain.PairSnapshot, error)
}
