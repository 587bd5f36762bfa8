package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PairSnapshot // keyed by pair_id|observed_at
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.PairSnapshot),
	}
}

func snapshotKey(pairID string, observedAt int64) string {
	return fmt.Sprintf("%s|%d", pairID, observedAt)
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (pair_id, observed_at), leaving the store unchanged.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PairSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching the map.
	for _, snap := range snapshots {
		if snap == nil || snap.PairID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[snapshotKey(snap.PairID, snap.ObservedAt)]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snapshotKey(snap.PairID, snap.ObservedAt)] = &snapCopy
	}
	return nil
}

// GetByPairID retrieves all snapshots for a pair, ordered by observed_at ASC.
func (s *SnapshotStore) GetByPairID(_ context.Context, pairID string) ([]*domain.PairSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PairSnapshot
	for _, snap := range s.data {
		if snap.PairID == pairID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}

// GetByTimeRange retrieves snapshots for a pair within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, pairID string, start, end int64) ([]*domain.PairSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PairSnapshot
	for _, snap := range s.data {
		if snap.PairID == pairID && snap.ObservedAt >= start && snap.ObservedAt <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
