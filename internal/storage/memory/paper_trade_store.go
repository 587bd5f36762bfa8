package memory

import (
	"context"
	"sort"
	"sync"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// PaperTradeStore is an in-memory implementation of storage.PaperTradeStore.
type PaperTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PaperTrade // keyed by trade_id
}

// NewPaperTradeStore creates a new in-memory paper trade store.
func NewPaperTradeStore() *PaperTradeStore {
	return &PaperTradeStore{
		data: make(map[string]*domain.PaperTrade),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *PaperTradeStore) Insert(_ context.Context, t *domain.PaperTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	tradeCopy := *t
	s.data[t.TradeID] = &tradeCopy
	return nil
}

// Update replaces an existing trade. Returns ErrNotFound if not exists.
func (s *PaperTradeStore) Update(_ context.Context, t *domain.PaperTrade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; !exists {
		return storage.ErrNotFound
	}

	tradeCopy := *t
	s.data[t.TradeID] = &tradeCopy
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *PaperTradeStore) GetByID(_ context.Context, tradeID string) (*domain.PaperTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tradeCopy := *t
	return &tradeCopy, nil
}

// GetOpen retrieves all open trades, ordered by opened_at ASC.
func (s *PaperTradeStore) GetOpen(_ context.Context) ([]*domain.PaperTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PaperTrade
	for _, t := range s.data {
		if t.Status == domain.TradeStatusOpen {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenedAt < result[j].OpenedAt
	})

	return result, nil
}

// GetByPairID retrieves all trades for a pair, ordered by opened_at ASC.
func (s *PaperTradeStore) GetByPairID(_ context.Context, pairID string) ([]*domain.PaperTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PaperTrade
	for _, t := range s.data {
		if t.PairID == pairID {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OpenedAt < result[j].OpenedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PaperTradeStore = (*PaperTradeStore)(nil)
