// Package main provides the unified watcher service:
// - Watch loop (continuous): pair discovery, snapshot polling, evaluation
// - Paper trading: positions opened on APPROVE verdicts, exits on price ticks
// - Alerting: Telegram (or process log) on approvals and trade closes
// - Live feed: every verdict broadcast to WebSocket subscribers
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"pairwatch/internal/alert"
	"pairwatch/internal/dexscreener"
	"pairwatch/internal/engine"
	"pairwatch/internal/feed"
	"pairwatch/internal/observability"
	"pairwatch/internal/papertrade"
	"pairwatch/internal/scoring"
	"pairwatch/internal/signal"
	"pairwatch/internal/storage"
	chstore "pairwatch/internal/storage/clickhouse"
	"pairwatch/internal/storage/memory"
	"pairwatch/internal/storage/migrations"
	pgstore "pairwatch/internal/storage/postgres"
	"pairwatch/internal/watch"
)

// allStores holds the storage implementations the service runs on.
type allStores struct {
	verdictStore  storage.VerdictStore
	tradeStore    storage.PaperTradeStore
	snapshotStore storage.SnapshotStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	chainID := flag.String("chain", envOr("CHAIN_ID", "solana"), "Chain identifier for pair lookups")
	apiURL := flag.String("api-url", os.Getenv("DEXSCREENER_URL"), "DEX Screener API base URL override")
	pollInterval := flag.Duration("poll-interval", 10*time.Second, "Snapshot poll interval")
	maxTracked := flag.Int("max-tracked", watch.DefaultMaxTracked, "Maximum pairs tracked at once")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	minLiquidity := flag.Float64("min-liquidity", signal.DefaultConfig().MinLiquidityUSD, "Liquidity floor in USD")
	approveAt := flag.Float64("approve-threshold", scoring.DefaultConfig().ApproveThreshold, "Minimum score for APPROVE")
	holdAt := flag.Float64("hold-threshold", scoring.DefaultConfig().HoldThreshold, "Minimum score for HOLD")
	paperTrading := flag.Bool("paper-trading", true, "Open paper trades on APPROVE verdicts")
	paperCapital := flag.Float64("paper-capital", papertrade.DefaultStartingCapitalUSD, "Starting paper trading capital in USD")
	telegramToken := flag.String("telegram-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token for alerts")
	telegramChat := flag.String("telegram-chat", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID for alerts")
	httpAddr := flag.String("http-addr", ":8080", "HTTP address for /health, /status, /metrics and /ws")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[watcher] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create engine
	sigCfg := signal.DefaultConfig()
	sigCfg.MinLiquidityUSD = *minLiquidity
	scoreCfg := scoring.DefaultConfig()
	scoreCfg.ApproveThreshold = *approveAt
	scoreCfg.HoldThreshold = *holdAt
	eng, err := engine.New(sigCfg, scoreCfg)
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	// Create paper trading manager
	var trades *papertrade.Manager
	if *paperTrading {
		tradeCfg := papertrade.DefaultConfig()
		tradeCfg.StartingCapitalUSD = *paperCapital
		trades, err = papertrade.NewManager(tradeCfg, stores.tradeStore)
		if err != nil {
			logger.Fatalf("Failed to create paper trading manager: %v", err)
		}
		logger.Printf("Paper trading enabled with $%.2f capital", *paperCapital)
	}

	// Create notifier
	var notifier alert.Notifier = alert.LogNotifier{}
	if *telegramToken != "" && *telegramChat != "" {
		notifier = alert.NewTelegramNotifier(*telegramToken, *telegramChat)
		logger.Println("Telegram alerts enabled")
	}

	// Create live feed hub
	hub := feed.NewHub()
	defer hub.Close()

	// Create snapshot source
	clientOpts := []dexscreener.ClientOption{}
	if *apiURL != "" {
		clientOpts = append(clientOpts, dexscreener.WithBaseURL(*apiURL))
	}
	source := dexscreener.NewPairSource(dexscreener.NewClient(clientOpts...), *chainID)
	logger.Printf("Watching chain %s", *chainID)

	// Create watcher
	watcher, err := watch.NewWatcher(watch.Options{
		Source:        source,
		Engine:        eng,
		VerdictStore:  stores.verdictStore,
		SnapshotStore: stores.snapshotStore,
		Trades:        trades,
		Notifier:      notifier,
		Feed:          hub,
		PollInterval:  *pollInterval,
		MaxTracked:    *maxTracked,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create watcher: %v", err)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go startHTTPServer(*httpAddr, watcher, hub, logger)

	// Run the watch loop
	err = watcher.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Watcher error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the verdict, trade and snapshot stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			verdictStore:  memory.NewVerdictStore(),
			tradeStore:    memory.NewPaperTradeStore(),
			snapshotStore: memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL: verdicts and paper trades
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse: snapshot history
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		verdictStore:  pgstore.NewVerdictStore(pool),
		tradeStore:    pgstore.NewPaperTradeStore(pool),
		snapshotStore: chstore.NewSnapshotStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// startHTTPServer starts the HTTP server for health/metrics/status/feed.
func startHTTPServer(addr string, watcher *watch.Watcher, hub *feed.Hub, logger *log.Logger) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Live verdict feed
	mux.Handle("/ws", hub)

	// Status endpoint
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(watcher.Status())
	})

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
}

// envOr returns the environment value or a fallback default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
