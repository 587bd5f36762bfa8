// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Watcher metrics
	PairsSeen        prometheus.Counter
	SnapshotsFetched prometheus.Counter
	SnapshotsStored  prometheus.Counter
	PollErrors       *prometheus.CounterVec
	PollDuration     prometheus.Histogram
	TrackedPairs     prometheus.Gauge

	// Evaluation metrics
	Evaluations  *prometheus.CounterVec
	Vetoes       *prometheus.CounterVec
	Warns        *prometheus.CounterVec
	VerdictScore prometheus.Histogram

	// Paper trading metrics
	TradesOpened  prometheus.Counter
	TradesClosed  *prometheus.CounterVec
	OpenPositions prometheus.Gauge
	CapitalUSD    prometheus.Gauge

	// Feed metrics
	FeedClients    prometheus.Gauge
	FeedBroadcasts prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pairwatch"
	}

	return &Metrics{
		// Watcher metrics
		PairsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "pairs_seen_total",
			Help:      "Total number of distinct pairs picked up for tracking",
		}),
		SnapshotsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "snapshots_fetched_total",
			Help:      "Total number of pair snapshots fetched from the feed",
		}),
		SnapshotsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "snapshots_stored_total",
			Help:      "Total number of pair snapshots stored to database",
		}),
		PollErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "poll_errors_total",
			Help:      "Total number of poll cycle errors by type",
		}, []string{"error_type"}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "poll_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TrackedPairs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "tracked_pairs",
			Help:      "Current number of pairs being tracked",
		}),

		// Evaluation metrics
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total number of evaluations by decision",
		}, []string{"decision"}),
		Vetoes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "vetoes_total",
			Help:      "Total number of veto signals by name",
		}, []string{"signal"}),
		Warns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "warns_total",
			Help:      "Total number of triggered warning signals by name",
		}, []string{"signal"}),
		VerdictScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "verdict_score",
			Help:      "Distribution of verdict scores",
			Buckets:   []float64{0, 10, 25, 50, 65, 80, 90, 100},
		}),

		// Paper trading metrics
		TradesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "papertrade",
			Name:      "trades_opened_total",
			Help:      "Total number of paper trades opened",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "papertrade",
			Name:      "trades_closed_total",
			Help:      "Total number of paper trades closed by exit reason",
		}, []string{"exit_reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "papertrade",
			Name:      "open_positions",
			Help:      "Current number of open paper trade positions",
		}),
		CapitalUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "papertrade",
			Name:      "capital_usd",
			Help:      "Current free paper trading capital in USD",
		}),

		// Feed metrics
		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Current number of connected WebSocket subscribers",
		}),
		FeedBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "broadcasts_total",
			Help:      "Total number of verdicts broadcast to subscribers",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful poll cycle",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPairSeen increments the pairs seen counter.
func RecordPairSeen() {
	DefaultMetrics.PairsSeen.Inc()
}

// RecordSnapshotFetched increments the snapshots fetched counter.
func RecordSnapshotFetched() {
	DefaultMetrics.SnapshotsFetched.Inc()
}

// RecordSnapshotsStored adds to the snapshots stored counter.
func RecordSnapshotsStored(n int) {
	DefaultMetrics.SnapshotsStored.Add(float64(n))
}

// RecordPollError records a poll cycle error.
func RecordPollError(errorType string) {
	DefaultMetrics.PollErrors.WithLabelValues(errorType).Inc()
}

// RecordPoll records a completed poll cycle.
func RecordPoll(seconds float64, unixNow int64) {
	DefaultMetrics.PollDuration.Observe(seconds)
	DefaultMetrics.LastSuccessfulPoll.Set(float64(unixNow))
}

// UpdateTrackedPairs updates the tracked pairs gauge.
func UpdateTrackedPairs(n int) {
	DefaultMetrics.TrackedPairs.Set(float64(n))
}

// RecordEvaluation records one verdict: its decision, score, and every
// triggered signal by severity.
func RecordEvaluation(decision string, score float64, triggered map[string]string) {
	DefaultMetrics.Evaluations.WithLabelValues(decision).Inc()
	DefaultMetrics.VerdictScore.Observe(score)
	for signal, severity := range triggered {
		switch severity {
		case "VETO":
			DefaultMetrics.Vetoes.WithLabelValues(signal).Inc()
		case "WARN":
			DefaultMetrics.Warns.WithLabelValues(signal).Inc()
		}
	}
}

// RecordTradeOpened increments the trades opened counter.
func RecordTradeOpened() {
	DefaultMetrics.TradesOpened.Inc()
}

// RecordTradeClosed increments the trades closed counter.
func RecordTradeClosed(exitReason string) {
	DefaultMetrics.TradesClosed.WithLabelValues(exitReason).Inc()
}

// UpdatePositions updates the open position and capital gauges.
func UpdatePositions(open int, capitalUSD float64) {
	DefaultMetrics.OpenPositions.Set(float64(open))
	DefaultMetrics.CapitalUSD.Set(capitalUSD)
}

// RecordBroadcast records a feed broadcast and the subscriber count.
func RecordBroadcast(clients int) {
	DefaultMetrics.FeedBroadcasts.Inc()
	DefaultMetrics.FeedClients.Set(float64(clients))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
