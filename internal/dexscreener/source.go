package dexscreener

import (
	"context"
	"fmt"
	"time"

	"pairwatch/internal/domain"
	"pairwatch/internal/storage"
)

// maxProfilesPerScan bounds how many latest-profile tokens are expanded
// into pair lookups in one discovery pass.
const maxProfilesPerScan = 20

// PairSource discovers newly promoted pairs on one chain and serves live
// snapshots for them. It adapts the HTTP client to the watcher's source
// interface.
type PairSource struct {
	client  *Client
	chainID string
	clock   func() time.Time
}

// NewPairSource creates a source scoped to one chain.
func NewPairSource(client *Client, chainID string) *PairSource {
	return &PairSource{
		client:  client,
		chainID: chainID,
		clock:   time.Now,
	}
}

// WithClock overrides the snapshot timestamp source. Used in tests.
func (s *PairSource) WithClock(clock func() time.Time) *PairSource {
	s.clock = clock
	return s
}

// DiscoverPairs expands the latest token profiles into pair addresses on
// the source's chain. Tokens from other chains and tokens with invalid
// addresses are skipped.
func (s *PairSource) DiscoverPairs(ctx context.Context) ([]string, error) {
	profiles, err := s.client.GetLatestProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest profiles: %w", err)
	}

	var pairIDs []string
	seen := 0
	for _, p := range profiles {
		if p.ChainID != s.chainID {
			continue
		}
		if ValidateAddress(p.TokenAddress) != nil {
			continue
		}
		if seen >= maxProfilesPerScan {
			break
		}
		seen++

		pairs, err := s.client.GetTokenPairs(ctx, s.chainID, p.TokenAddress)
		if err != nil {
			return nil, fmt.Errorf("token pairs for %s: %w", p.TokenAddress, err)
		}
		for _, pair := range pairs {
			if ValidateAddress(pair.PairAddress) != nil {
				continue
			}
			// Pool state accounts are PDAs; an on-curve pair id is a
			// wallet key, not a pool.
			if IsOnCurve(pair.PairAddress) {
				continue
			}
			pairIDs = append(pairIDs, pair.PairAddress)
		}
	}
	return pairIDs, nil
}

// FetchSnapshot returns the current snapshot for one pair. Pairs unknown
// to the API map to storage.ErrNotFound.
func (s *PairSource) FetchSnapshot(ctx context.Context, pairID string) (*domain.PairSnapshot, error) {
	pair, err := s.client.GetPair(ctx, s.chainID, pairID)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: pair %s", storage.ErrNotFound, pairID)
	}
	return ToSnapshot(pair, s.clock(), nil)
}
