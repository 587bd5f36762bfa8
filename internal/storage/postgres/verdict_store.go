package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// VerdictStore implements storage.VerdictStore using PostgreSQL.
// Signals are stored as a JSONB audit column alongside the scalar fields.
type VerdictStore struct {
	pool *Pool
}

// NewVerdictStore creates a new VerdictStore.
func NewVerdictStore(pool *Pool) *VerdictStore {
	return &VerdictStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VerdictStore = (*VerdictStore)(nil)

// Insert adds a new verdict. Returns ErrDuplicateKey if verdict_id exists.
func (s *VerdictStore) Insert(ctx context.Context, v *domain.Verdict) error {
	signals, err := json.Marshal(v.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}

	query := `
		INSERT INTO verdicts (
			verdict_id, pair_id, evaluated_at, score, decision, signals
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err = s.pool.Exec(ctx, query,
		v.VerdictID, v.PairID, v.EvaluatedAt, v.Score, string(v.Decision), signals,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

// GetByID retrieves a verdict by its ID. Returns ErrNotFound if not exists.
func (s *VerdictStore) GetByID(ctx context.Context, verdictID string) (*domain.Verdict, error) {
	query := `
		SELECT verdict_id, pair_id, evaluated_at, score, decision, signals
		FROM verdicts
		WHERE verdict_id = $1
	`

	row := s.pool.QueryRow(ctx, query, verdictID)
	v, err := scanVerdict(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get verdict by id: %w", err)
	}
	return v, nil
}

// GetByPairID retrieves all verdicts for a pair, ordered by evaluated_at ASC.
func (s *VerdictStore) GetByPairID(ctx context.Context, pairID string) ([]*domain.Verdict, error) {
	query := `
		SELECT verdict_id, pair_id, evaluated_at, score, decision, signals
		FROM verdicts
		WHERE pair_id = $1
		ORDER BY evaluated_at ASC, verdict_id ASC
	`

	rows, err := s.pool.Query(ctx, query, pairID)
	if err != nil {
		return nil, fmt.Errorf("get verdicts by pair id: %w", err)
	}
	defer rows.Close()

	return scanVerdicts(rows)
}

// GetLatestByPairID retrieves the most recent verdict for a pair.
func (s *VerdictStore) GetLatestByPairID(ctx context.Context, pairID string) (*domain.Verdict, error) {
	query := `
		SELECT verdict_id, pair_id, evaluated_at, score, decision, signals
		FROM verdicts
		WHERE pair_id = $1
		ORDER BY evaluated_at DESC, verdict_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, pairID)
	v, err := scanVerdict(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest verdict by pair id: %w", err)
	}
	return v, nil
}

// GetByDecision retrieves all verdicts with a given decision, ordered by evaluated_at ASC.
func (s *VerdictStore) GetByDecision(ctx context.Context, decision domain.Decision) ([]*domain.Verdict, error) {
	query := `
		SELECT verdict_id, pair_id, evaluated_at, score, decision, signals
		FROM verdicts
		WHERE decision = $1
		ORDER BY evaluated_at ASC, verdict_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(decision))
	if err != nil {
		return nil, fmt.Errorf("get verdicts by decision: %w", err)
	}
	defer rows.Close()

	return scanVerdicts(rows)
}

// scanVerdict scans a single row into a Verdict.
func scanVerdict(row pgx.Row) (*domain.Verdict, error) {
	var v domain.Verdict
	var decision string
	var signals []byte

	err := row.Scan(&v.VerdictID, &v.PairID, &v.EvaluatedAt, &v.Score, &decision, &signals)
	if err != nil {
		return nil, err
	}

	v.Decision = domain.Decision(decision)
	if err := json.Unmarshal(signals, &v.Signals); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}

	return &v, nil
}

// scanVerdicts scans multiple rows into a slice of Verdict.
func scanVerdicts(rows pgx.Rows) ([]*domain.Verdict, error) {
	var verdicts []*domain.Verdict

	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verdict row: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdict rows: %w", err)
	}

	return verdicts, nil
}
