// Package watch runs the polling loop that turns live pair data into
// verdicts. It discovers newly listed pairs, keeps the previous snapshot
// per pair so drain detection has a baseline, and routes each verdict to
// storage, the live feed, alerting and paper trading.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"pairwatch/internal/alert"
	"pairwatch/internal/domain"
	"pairwatch/internal/engine"
	"pairwatch/internal/feed"
	"pairwatch/internal/observability"
	"pairwatch/internal/papertrade"
	"pairwatch/internal/storage"
)

// SnapshotSource supplies pairs to track and their live snapshots.
type SnapshotSource interface {
	// DiscoverPairs returns identifiers of pairs worth tracking.
	DiscoverPairs(ctx context.Context) ([]string, error)
	// FetchSnapshot returns the current snapshot for one pair. Pairs
	// unknown upstream map to storage.ErrNotFound.
	FetchSnapshot(ctx context.Context, pairID string) (*domain.PairSnapshot, error)
}

// Default watcher settings.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxTracked   = 200
)

// maxRejectedRemembered bounds the rejected-pair memory. Discovery feeds
// are rolling windows, so a rejected pair keeps showing up for a while;
// forgetting it too early would re-track it with its drain baseline erased.
const maxRejectedRemembered = 10000

// Options contains configuration for creating a Watcher.
type Options struct {
	// Required
	Source       SnapshotSource
	Engine       *engine.Engine
	VerdictStore storage.VerdictStore

	// Optional sinks
	SnapshotStore storage.SnapshotStore
	Trades        *papertrade.Manager
	Notifier      alert.Notifier
	Feed          *feed.Hub

	PollInterval time.Duration
	MaxTracked   int
	Logger       *log.Logger
}

// Watcher polls tracked pairs and evaluates every fresh snapshot.
type Watcher struct {
	source    SnapshotSource
	engine    *engine.Engine
	verdicts  storage.VerdictStore
	snapshots storage.SnapshotStore
	trades    *papertrade.Manager
	notifier  alert.Notifier
	hub       *feed.Hub

	pollInterval time.Duration
	maxTracked   int
	logger       *log.Logger
	clock        func() time.Time

	mu            sync.Mutex
	tracked       map[string]*trackedPair
	rejected      map[string]struct{}
	rejectedOrder []string
	maxRejected   int
	polls         int64
	lastPollAt    time.Time
}

// trackedPair is the per-pair state the loop carries between cycles.
type trackedPair struct {
	previous *domain.PairSnapshot
}

// NewWatcher creates a watcher. Source, Engine and VerdictStore are
// required; the remaining sinks are optional.
func NewWatcher(opts Options) (*Watcher, error) {
	if opts.Source == nil || opts.Engine == nil || opts.VerdictStore == nil {
		return nil, errors.New("watch: source, engine and verdict store are required")
	}

	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	maxTracked := opts.MaxTracked
	if maxTracked == 0 {
		maxTracked = DefaultMaxTracked
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		source:       opts.Source,
		engine:       opts.Engine,
		verdicts:     opts.VerdictStore,
		snapshots:    opts.SnapshotStore,
		trades:       opts.Trades,
		notifier:     opts.Notifier,
		hub:          opts.Feed,
		pollInterval: pollInterval,
		maxTracked:   maxTracked,
		logger:       logger,
		clock:        time.Now,
		tracked:      make(map[string]*trackedPair),
		rejected:     make(map[string]struct{}),
		maxRejected:  maxRejectedRemembered,
	}, nil
}

// WithClock overrides the time source. Used in tests.
func (w *Watcher) WithClock(clock func() time.Time) *Watcher {
	w.clock = clock
	return w
}

// Track adds a pair to the watch set without waiting for discovery.
func (w *Watcher) Track(pairID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trackLocked(pairID)
}

func (w *Watcher) trackLocked(pairID string) {
	if _, ok := w.tracked[pairID]; ok {
		return
	}
	// A rejected pair stays rejected.
	if _, ok := w.rejected[pairID]; ok {
		return
	}
	if len(w.tracked) >= w.maxTracked {
		return
	}
	w.tracked[pairID] = &trackedPair{}
	observability.RecordPairSeen()
	w.logger.Printf("[watch] tracking pair %s", pairID)
}

// TrackedCount reports the current watch set size.
func (w *Watcher) TrackedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tracked)
}

// Status is a point-in-time view of the loop for the status endpoint.
type Status struct {
	TrackedPairs  int       `json:"tracked_pairs"`
	RejectedPairs int       `json:"rejected_pairs"`
	Polls         int64     `json:"polls"`
	LastPollAt    time.Time `json:"last_poll_at"`
	PollInterval  string    `json:"poll_interval"`
}

// Status returns loop statistics.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		TrackedPairs:  len(w.tracked),
		RejectedPairs: len(w.rejected),
		Polls:         w.polls,
		LastPollAt:    w.lastPollAt,
		PollInterval:  w.pollInterval.String(),
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately; the ticker drives the rest.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Printf("[watch] starting, poll interval %v", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("[watch] stopping")
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll runs one full cycle: discovery, then evaluation of every tracked
// pair in deterministic order.
func (w *Watcher) poll(ctx context.Context) {
	start := w.clock()

	if ids, err := w.source.DiscoverPairs(ctx); err != nil {
		w.logger.Printf("[watch] discovery failed: %v", err)
		observability.RecordPollError("discover")
	} else {
		w.mu.Lock()
		for _, id := range ids {
			w.trackLocked(id)
		}
		w.mu.Unlock()
	}

	var batch []*domain.PairSnapshot
	visited := make(map[string]bool)
	for _, pairID := range w.trackedIDs() {
		visited[pairID] = true
		snap, ok := w.evaluatePair(ctx, pairID)
		if ok {
			batch = append(batch, snap)
		}
	}
	w.storeSnapshots(ctx, batch)
	w.tickOrphanedTrades(ctx, visited)

	w.mu.Lock()
	w.polls++
	w.lastPollAt = w.clock()
	tracked := len(w.tracked)
	w.mu.Unlock()

	observability.UpdateTrackedPairs(tracked)
	observability.RecordPoll(w.clock().Sub(start).Seconds(), w.clock().Unix())
	if w.trades != nil {
		w.updatePositionGauges(ctx)
	}
}

// trackedIDs snapshots the watch set in sorted order so a cycle visits
// pairs deterministically.
func (w *Watcher) trackedIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.tracked))
	for id := range w.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// evaluatePair fetches one pair, evaluates it and fans the verdict out.
// It returns the snapshot for batch storage when the pair produced one.
func (w *Watcher) evaluatePair(ctx context.Context, pairID string) (*domain.PairSnapshot, bool) {
	w.mu.Lock()
	tp, ok := w.tracked[pairID]
	w.mu.Unlock()
	if !ok {
		return nil, false
	}

	snap, err := w.source.FetchSnapshot(ctx, pairID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.Printf("[watch] pair %s gone upstream, untracking", pairID)
			w.untrack(pairID)
			return nil, false
		}
		w.logger.Printf("[watch] fetch %s: %v", pairID, err)
		observability.RecordPollError("fetch")
		return nil, false
	}
	observability.RecordSnapshotFetched()

	// Same observation as last cycle: nothing new to judge.
	if tp.previous != nil && snap.ObservedAt == tp.previous.ObservedAt {
		return nil, false
	}

	// The loop owns baseline retention; the source never sets the prior.
	if tp.previous != nil {
		prior := tp.previous.LiquidityUSD
		snap.LiquidityUSDPrior = &prior
	}

	verdict, err := w.engine.EvaluatePair(snap, tp.previous)
	if err != nil {
		// A snapshot that fails validation is dropped along with its
		// pair; defaults are never fabricated for it.
		w.logger.Printf("[watch] evaluate %s: %v", pairID, err)
		observability.RecordPollError("evaluate")
		w.untrack(pairID)
		return nil, false
	}

	if err := w.verdicts.Insert(ctx, verdict); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		w.logger.Printf("[watch] store verdict for %s: %v", pairID, err)
		observability.RecordPollError("store")
	}
	w.recordVerdict(verdict)

	if w.hub != nil {
		w.hub.Broadcast(verdict)
		observability.RecordBroadcast(w.hub.ClientCount())
	}
	if verdict.Decision == domain.DecisionApprove {
		w.notify(ctx, alert.FormatVerdict(verdict))
	}
	w.advanceTrades(ctx, verdict, snap)

	if verdict.Decision == domain.DecisionReject {
		// Remember the rejection so a rolling discovery feed cannot
		// re-track the pair with its drain baseline erased.
		w.logger.Printf("[watch] %s rejected (score %.0f), untracking", pairID, verdict.Score)
		w.markRejected(pairID)
	} else {
		w.mu.Lock()
		if tp, ok := w.tracked[pairID]; ok {
			tp.previous = snap
		}
		w.mu.Unlock()
	}

	return snap, true
}

// advanceTrades feeds the price tick to open positions and opens a new
// one on APPROVE.
func (w *Watcher) advanceTrades(ctx context.Context, v *domain.Verdict, snap *domain.PairSnapshot) {
	if w.trades == nil {
		return
	}

	closed, err := w.trades.OnPrice(ctx, snap.PairID, snap.PriceUSD)
	if err != nil {
		w.logger.Printf("[watch] price tick for %s: %v", snap.PairID, err)
	}
	w.settleClosed(ctx, closed)

	if v.Decision != domain.DecisionApprove {
		return
	}
	trade, err := w.trades.Open(ctx, v, snap)
	switch {
	case err == nil:
		observability.RecordTradeOpened()
		w.logger.Printf("[watch] opened trade %s on %s at %g", trade.TradeID[:8], trade.PairID, trade.EntryPrice)
	case errors.Is(err, papertrade.ErrNoCapacity):
		// All slots busy; the approval stands on its own.
	case errors.Is(err, storage.ErrInvalidInput):
		// Position already open for the pair, or no usable price.
	default:
		w.logger.Printf("[watch] open trade on %s: %v", snap.PairID, err)
	}
}

// tickOrphanedTrades prices the open positions whose pairs are no longer
// in the watch set. Exits must keep firing after a pair is rejected or
// gone from discovery, otherwise capital stays locked in a position
// nobody updates. visited holds the pairs already ticked this cycle.
func (w *Watcher) tickOrphanedTrades(ctx context.Context, visited map[string]bool) {
	if w.trades == nil {
		return
	}
	open, err := w.trades.Store().GetOpen(ctx)
	if err != nil {
		w.logger.Printf("[watch] list open trades: %v", err)
		return
	}
	for _, t := range open {
		if visited[t.PairID] {
			continue
		}
		snap, err := w.source.FetchSnapshot(ctx, t.PairID)
		if err != nil {
			w.logger.Printf("[watch] price position on %s: %v", t.PairID, err)
			continue
		}
		closed, err := w.trades.OnPrice(ctx, t.PairID, snap.PriceUSD)
		if err != nil {
			w.logger.Printf("[watch] price tick for %s: %v", t.PairID, err)
			continue
		}
		w.settleClosed(ctx, closed)
	}
}

// settleClosed records and announces trades a price tick closed.
func (w *Watcher) settleClosed(ctx context.Context, closed []*domain.PaperTrade) {
	for _, t := range closed {
		observability.RecordTradeClosed(t.ExitReason)
		w.notify(ctx, alert.FormatTradeClosed(t))
	}
}

// storeSnapshots appends the cycle's snapshots to the history store.
func (w *Watcher) storeSnapshots(ctx context.Context, batch []*domain.PairSnapshot) {
	if w.snapshots == nil || len(batch) == 0 {
		return
	}
	if err := w.snapshots.InsertBulk(ctx, batch); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		w.logger.Printf("[watch] store snapshots: %v", err)
		observability.RecordPollError("store")
		return
	}
	observability.RecordSnapshotsStored(len(batch))
}

func (w *Watcher) untrack(pairID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tracked, pairID)
}

// markRejected drops a pair from the watch set and records the rejection.
// The memory is bounded FIFO so a long-running loop cannot grow without
// limit; by the time an id is evicted the discovery window has moved on.
func (w *Watcher) markRejected(pairID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tracked, pairID)
	if _, ok := w.rejected[pairID]; ok {
		return
	}
	for len(w.rejectedOrder) >= w.maxRejected {
		delete(w.rejected, w.rejectedOrder[0])
		w.rejectedOrder = w.rejectedOrder[1:]
	}
	w.rejected[pairID] = struct{}{}
	w.rejectedOrder = append(w.rejectedOrder, pairID)
}

func (w *Watcher) notify(ctx context.Context, text string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, text); err != nil {
		w.logger.Printf("[watch] notify: %v", err)
	}
}

func (w *Watcher) recordVerdict(v *domain.Verdict) {
	triggered := make(map[string]string)
	for _, s := range v.Signals {
		if s.Triggered {
			triggered[s.Name] = string(s.Severity)
		}
	}
	observability.RecordEvaluation(string(v.Decision), v.Score, triggered)
}

func (w *Watcher) updatePositionGauges(ctx context.Context) {
	open := 0
	if trades, err := w.trades.Store().GetOpen(ctx); err == nil {
		open = len(trades)
	}
	observability.UpdatePositions(open, w.trades.CapitalUSD())
}

// String renders the status for log lines.
func (s Status) String() string {
	return fmt.Sprintf("tracked=%d polls=%d last=%s", s.TrackedPairs, s.Polls, s.LastPollAt.Format(time.RFC3339))
}
