package memory

import (
	"context"
	"sort"
	"sync"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// VerdictStore is an in-memory implementation of storage.VerdictStore.
type VerdictStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Verdict // keyed by verdict_id
}

// NewVerdictStore creates a new in-memory verdict store.
func NewVerdictStore() *VerdictStore {
	return &VerdictStore{
		data: make(map[string]*domain.Verdict),
	}
}

// Insert adds a new verdict. Returns ErrDuplicateKey if verdict_id exists.
func (s *VerdictStore) Insert(_ context.Context, v *domain.Verdict) error {
	if v == nil || v.VerdictID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[v.VerdictID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[v.VerdictID] = copyVerdict(v)
	return nil
}

// GetByID retrieves a verdict by its ID. Returns ErrNotFound if not exists.
func (s *VerdictStore) GetByID(_ context.Context, verdictID string) (*domain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.data[verdictID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyVerdict(v), nil
}

// GetByPairID retrieves all verdicts for a pair, ordered by evaluated_at ASC.
func (s *VerdictStore) GetByPairID(_ context.Context, pairID string) ([]*domain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Verdict
	for _, v := range s.data {
		if v.PairID == pairID {
			result = append(result, copyVerdict(v))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EvaluatedAt < result[j].EvaluatedAt
	})

	return result, nil
}

// GetLatestByPairID retrieves the most recent verdict for a pair.
func (s *VerdictStore) GetLatestByPairID(_ context.Context, pairID string) (*domain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Verdict
	for _, v := range s.data {
		if v.PairID != pairID {
			continue
		}
		if latest == nil || v.EvaluatedAt > latest.EvaluatedAt {
			latest = v
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyVerdict(latest), nil
}

// GetByDecision retrieves all verdicts with a given decision, ordered by evaluated_at ASC.
func (s *VerdictStore) GetByDecision(_ context.Context, decision domain.Decision) ([]*domain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Verdict
	for _, v := range s.data {
		if v.Decision == decision {
			result = append(result, copyVerdict(v))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EvaluatedAt < result[j].EvaluatedAt
	})

	return result, nil
}

// copyVerdict deep-copies a verdict including its signal slice, so callers
// can never mutate stored state.
func copyVerdict(v *domain.Verdict) *domain.Verdict {
	verdictCopy := *v
	verdictCopy.Signals = make([]domain.SignalResult, len(v.Signals))
	copy(verdictCopy.Signals, v.Signals)
	return &verdictCopy
}

// Verify interface compliance at compile time.
var _ storage.VerdictStore = (*VerdictStore)(nil)
