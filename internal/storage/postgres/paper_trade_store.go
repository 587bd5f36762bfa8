package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// PaperTradeStore implements storage.PaperTradeStore using PostgreSQL.
type PaperTradeStore struct {
	pool *Pool
}

// NewPaperTradeStore creates a new PaperTradeStore.
func NewPaperTradeStore(pool *Pool) *PaperTradeStore {
	return &PaperTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PaperTradeStore = (*PaperTradeStore)(nil)

const paperTradeColumns = `
	trade_id, pair_id, verdict_id, opened_at,
	entry_price, position_usd, tokens_held, entry_tokens,
	target_price, next_ladder_at, current_price, peak_price,
	realized_usd, target_hit, status, closed_at, exit_reason, net_pnl_usd
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *PaperTradeStore) Insert(ctx context.Context, t *domain.PaperTrade) error {
	query := `
		INSERT INTO paper_trades (` + paperTradeColumns + `
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18
		)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.PairID, t.VerdictID, t.OpenedAt,
		t.EntryPrice, t.PositionUSD, t.TokensHeld, t.EntryTokens,
		t.TargetPrice, t.NextLadderAt, t.CurrentPrice, t.PeakPrice,
		t.RealizedUSD, t.TargetHit, string(t.Status), t.ClosedAt, t.ExitReason, t.NetPnLUSD,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert paper trade: %w", err)
	}
	return nil
}

// Update replaces an existing trade. Returns ErrNotFound if not exists.
func (s *PaperTradeStore) Update(ctx context.Context, t *domain.PaperTrade) error {
	query := `
		UPDATE paper_trades SET
			tokens_held = $2, target_price = $3, next_ladder_at = $4,
			current_price = $5, peak_price = $6, realized_usd = $7,
			target_hit = $8, status = $9, closed_at = $10,
			exit_reason = $11, net_pnl_usd = $12
		WHERE trade_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		t.TradeID,
		t.TokensHeld, t.TargetPrice, t.NextLadderAt,
		t.CurrentPrice, t.PeakPrice, t.RealizedUSD,
		t.TargetHit, string(t.Status), t.ClosedAt,
		t.ExitReason, t.NetPnLUSD,
	)
	if err != nil {
		return fmt.Errorf("update paper trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *PaperTradeStore) GetByID(ctx context.Context, tradeID string) (*domain.PaperTrade, error) {
	query := `
		SELECT ` + paperTradeColumns + `
		FROM paper_trades
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanPaperTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get paper trade by id: %w", err)
	}
	return t, nil
}

// GetOpen retrieves all open trades, ordered by opened_at ASC.
func (s *PaperTradeStore) GetOpen(ctx context.Context) ([]*domain.PaperTrade, error) {
	query := `
		SELECT ` + paperTradeColumns + `
		FROM paper_trades
		WHERE status = $1
		ORDER BY opened_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(domain.TradeStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("get open paper trades: %w", err)
	}
	defer rows.Close()

	return scanPaperTrades(rows)
}

// GetByPairID retrieves all trades for a pair, ordered by opened_at ASC.
func (s *PaperTradeStore) GetByPairID(ctx context.Context, pairID string) ([]*domain.PaperTrade, error) {
	query := `
		SELECT ` + paperTradeColumns + `
		FROM paper_trades
		WHERE pair_id = $1
		ORDER BY opened_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, pairID)
	if err != nil {
		return nil, fmt.Errorf("get paper trades by pair id: %w", err)
	}
	defer rows.Close()

	return scanPaperTrades(rows)
}

// scanPaperTrade scans a single row into a PaperTrade.
func scanPaperTrade(row pgx.Row) (*domain.PaperTrade, error) {
	var t domain.PaperTrade
	var status string

	err := row.Scan(
		&t.TradeID, &t.PairID, &t.VerdictID, &t.OpenedAt,
		&t.EntryPrice, &t.PositionUSD, &t.TokensHeld, &t.EntryTokens,
		&t.TargetPrice, &t.NextLadderAt, &t.CurrentPrice, &t.PeakPrice,
		&t.RealizedUSD, &t.TargetHit, &status, &t.ClosedAt, &t.ExitReason, &t.NetPnLUSD,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TradeStatus(status)
	return &t, nil
}

// scanPaperTrades scans multiple rows into a slice of PaperTrade.
func scanPaperTrades(rows pgx.Rows) ([]*domain.PaperTrade, error) {
	var trades []*domain.PaperTrade

	for rows.Next() {
		t, err := scanPaperTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paper trade rows: %w", err)
	}

	return trades, nil
}
