// Package papertrade simulates position management on approved pairs. No
// real orders are placed; the point is to measure what the scoring engine's
// approvals would have been worth.
package papertrade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pairwatch/internal/domain"
	"pairwatch/internal/idhash"
	"pairwatch/internal/storage"
)

// Default configuration values.
const (
	DefaultStartingCapitalUSD = 1000.0
	DefaultRiskFraction       = 0.05 // capital fraction per position
	DefaultMaxOpenTrades      = 4
	DefaultTrailingStopDrop   = 0.50 // close when price falls this far from peak
	DefaultTargetMultiple     = 2.0  // take-profit target relative to entry
	DefaultTargetSellFraction = 0.70 // sold at target
	DefaultLadderMultiple     = 2.0  // each subsequent ladder trigger
	DefaultLadderSellFraction = 0.50 // sold at each ladder rung
)

// Config holds position sizing and exit rules.
type Config struct {
	StartingCapitalUSD float64
	RiskFraction       float64
	MaxOpenTrades      int
	TrailingStopDrop   float64
	TargetMultiple     float64
	TargetSellFraction float64
	LadderMultiple     float64
	LadderSellFraction float64
}

// DefaultConfig returns the standard paper trading configuration.
func DefaultConfig() Config {
	return Config{
		StartingCapitalUSD: DefaultStartingCapitalUSD,
		RiskFraction:       DefaultRiskFraction,
		MaxOpenTrades:      DefaultMaxOpenTrades,
		TrailingStopDrop:   DefaultTrailingStopDrop,
		TargetMultiple:     DefaultTargetMultiple,
		TargetSellFraction: DefaultTargetSellFraction,
		LadderMultiple:     DefaultLadderMultiple,
		LadderSellFraction: DefaultLadderSellFraction,
	}
}

func (c Config) Validate() error {
	if c.StartingCapitalUSD <= 0 {
		return fmt.Errorf("starting capital must be positive, got %.2f", c.StartingCapitalUSD)
	}
	if c.RiskFraction <= 0 || c.RiskFraction > 1 {
		return fmt.Errorf("risk fraction must be in (0, 1], got %.2f", c.RiskFraction)
	}
	if c.MaxOpenTrades <= 0 {
		return fmt.Errorf("max open trades must be positive, got %d", c.MaxOpenTrades)
	}
	if c.TrailingStopDrop <= 0 || c.TrailingStopDrop >= 1 {
		return fmt.Errorf("trailing stop drop must be in (0, 1), got %.2f", c.TrailingStopDrop)
	}
	if c.TargetMultiple <= 1 || c.LadderMultiple <= 1 {
		return fmt.Errorf("target and ladder multiples must exceed 1")
	}
	if c.TargetSellFraction <= 0 || c.TargetSellFraction >= 1 {
		return fmt.Errorf("target sell fraction must be in (0, 1), got %.2f", c.TargetSellFraction)
	}
	if c.LadderSellFraction <= 0 || c.LadderSellFraction >= 1 {
		return fmt.Errorf("ladder sell fraction must be in (0, 1), got %.2f", c.LadderSellFraction)
	}
	return nil
}

// runnerDustFraction closes the ladder runner once partial sells shrink it
// below this share of the entry size; the remainder is banked as a target
// hit rather than left to dribble through ever-higher rungs.
const runnerDustFraction = 0.05

// ErrNoCapacity is returned by Open when every trade slot is in use.
var ErrNoCapacity = errors.New("no free trade slots")

// Manager opens positions on APPROVE verdicts and walks them through the
// trailing-stop and profit-ladder exits as prices update.
type Manager struct {
	cfg   Config
	store storage.PaperTradeStore
	clock func() time.Time

	mu         sync.Mutex
	capitalUSD float64
}

// NewManager creates a Manager with the given store and validated config.
func NewManager(cfg Config, store storage.PaperTradeStore) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("papertrade config: %w", err)
	}
	return &Manager{
		cfg:        cfg,
		store:      store,
		clock:      func() time.Time { return time.Now().UTC() },
		capitalUSD: cfg.StartingCapitalUSD,
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// CapitalUSD reports uncommitted capital.
func (m *Manager) CapitalUSD() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capitalUSD
}

// Store exposes the backing trade store for read paths.
func (m *Manager) Store() storage.PaperTradeStore {
	return m.store
}

// Open enters a position for an approved verdict at the snapshot price.
// Returns ErrNoCapacity when all slots are taken, and storage.ErrInvalidInput
// for verdicts that are not APPROVE or snapshots without a usable price.
func (m *Manager) Open(ctx context.Context, v *domain.Verdict, snap *domain.PairSnapshot) (*domain.PaperTrade, error) {
	if v == nil || snap == nil || v.PairID != snap.PairID {
		return nil, storage.ErrInvalidInput
	}
	if v.Decision != domain.DecisionApprove {
		return nil, fmt.Errorf("%w: cannot open position on %s verdict", storage.ErrInvalidInput, v.Decision)
	}
	if snap.PriceUSD <= 0 {
		return nil, fmt.Errorf("%w: snapshot has no usable price", storage.ErrInvalidInput)
	}

	open, err := m.store.GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open trades: %w", err)
	}
	if len(open) >= m.cfg.MaxOpenTrades {
		return nil, ErrNoCapacity
	}
	for _, t := range open {
		// One position per pair at a time.
		if t.PairID == v.PairID {
			return nil, fmt.Errorf("%w: position already open for pair %s", storage.ErrInvalidInput, v.PairID)
		}
	}

	m.mu.Lock()
	position := m.capitalUSD * m.cfg.RiskFraction
	if position <= 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: no capital left", storage.ErrInvalidInput)
	}
	m.capitalUSD -= position
	m.mu.Unlock()

	openedAt := m.clock().UnixMilli()
	tokens := position / snap.PriceUSD
	target := snap.PriceUSD * m.cfg.TargetMultiple

	trade := &domain.PaperTrade{
		TradeID:      idhash.ComputeTradeID(v.PairID, v.VerdictID, openedAt),
		PairID:       v.PairID,
		VerdictID:    v.VerdictID,
		OpenedAt:     openedAt,
		EntryPrice:   snap.PriceUSD,
		PositionUSD:  position,
		TokensHeld:   tokens,
		EntryTokens:  tokens,
		TargetPrice:  target,
		NextLadderAt: target * m.cfg.LadderMultiple,
		CurrentPrice: snap.PriceUSD,
		PeakPrice:    snap.PriceUSD,
		Status:       domain.TradeStatusOpen,
	}

	if err := m.store.Insert(ctx, trade); err != nil {
		m.mu.Lock()
		m.capitalUSD += position
		m.mu.Unlock()
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	tradeCopy := *trade
	return &tradeCopy, nil
}

// OnPrice advances every open trade on the pair through the exit rules at
// the observed price. Partial sells bank proceeds; the trailing stop closes
// whatever remains. Trades closed by this tick are returned.
func (m *Manager) OnPrice(ctx context.Context, pairID string, price float64) ([]*domain.PaperTrade, error) {
	if price <= 0 {
		return nil, nil
	}

	open, err := m.store.GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open trades: %w", err)
	}

	var closed []*domain.PaperTrade
	for _, t := range open {
		if t.PairID != pairID {
			continue
		}

		t.CurrentPrice = price
		if price > t.PeakPrice {
			t.PeakPrice = price
		}

		// Take-profit target: bank the bulk of the position.
		if !t.TargetHit && price >= t.TargetPrice {
			sold := t.TokensHeld * m.cfg.TargetSellFraction
			t.TokensHeld -= sold
			t.RealizedUSD += sold * price
			t.TargetHit = true
		}

		// Doubling ladder after the target: keep peeling off the runner.
		for t.TargetHit && price >= t.NextLadderAt {
			sold := t.TokensHeld * m.cfg.LadderSellFraction
			t.TokensHeld -= sold
			t.RealizedUSD += sold * price
			t.NextLadderAt *= m.cfg.LadderMultiple
		}

		// A dust runner after the ladder banks as a target hit; the
		// trailing stop from the high-water mark closes everything else.
		switch {
		case t.TargetHit && t.TokensHeld <= t.EntryTokens*runnerDustFraction:
			m.close(t, price, domain.ExitReasonTargetHit)
			closed = append(closed, t)
		case price <= t.PeakPrice*(1-m.cfg.TrailingStopDrop):
			m.close(t, price, domain.ExitReasonTrailingStop)
			closed = append(closed, t)
		}

		if err := m.store.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("update trade %s: %w", t.TradeID, err)
		}
	}

	return closed, nil
}

// Close exits a trade at the given price with a manual reason.
func (m *Manager) Close(ctx context.Context, tradeID string, price float64) (*domain.PaperTrade, error) {
	t, err := m.store.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TradeStatusOpen {
		return nil, fmt.Errorf("%w: trade %s is already closed", storage.ErrInvalidInput, tradeID)
	}

	t.CurrentPrice = price
	if price > t.PeakPrice {
		t.PeakPrice = price
	}
	m.close(t, price, domain.ExitReasonManualClose)

	if err := m.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update trade %s: %w", tradeID, err)
	}
	return t, nil
}

// close liquidates remaining tokens, settles PnL and returns capital.
func (m *Manager) close(t *domain.PaperTrade, price float64, reason string) {
	t.RealizedUSD += t.TokensHeld * price
	t.TokensHeld = 0
	t.Status = domain.TradeStatusClosed
	t.ClosedAt = m.clock().UnixMilli()
	t.ExitReason = reason
	t.NetPnLUSD = t.RealizedUSD - t.PositionUSD

	m.mu.Lock()
	m.capitalUSD += t.PositionUSD + t.NetPnLUSD
	m.mu.Unlock()
}
