// Package main provides one-shot snapshot evaluation for threshold tuning:
// read a snapshot (and optionally the previous one) as JSON, print the
// verdict as JSON.
//
// Exit codes: 0 APPROVE or HOLD, 1 REJECT, 2 invalid input.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"pairwatch/internal/domain"
	"pairwatch/internal/engine"
	"pairwatch/internal/feed"
	"pairwatch/internal/scoring"
	"pairwatch/internal/signal"
)

// snapshotInput is the JSON wire form of a pair snapshot.
type snapshotInput struct {
	PairID            string   `json:"pair_id"`
	ObservedAt        int64    `json:"observed_at"`
	AgeMinutes        float64  `json:"age_minutes"`
	LiquidityUSD      float64  `json:"liquidity_usd"`
	LiquidityUSDPrior *float64 `json:"liquidity_usd_prior"`
	TopHolderPct      *float64 `json:"top_holder_pct"`
	BuyCount          int      `json:"buy_count"`
	SellCount         int      `json:"sell_count"`
	BuyVolumeUSD      float64  `json:"buy_volume_usd"`
	SellVolumeUSD     float64  `json:"sell_volume_usd"`
	PriceUSD          float64  `json:"price_usd"`
	MarketCapUSD      *float64 `json:"market_cap_usd"`
}

func (in *snapshotInput) toDomain() *domain.PairSnapshot {
	return &domain.PairSnapshot{
		PairID:            in.PairID,
		ObservedAt:        in.ObservedAt,
		AgeMinutes:        in.AgeMinutes,
		LiquidityUSD:      in.LiquidityUSD,
		LiquidityUSDPrior: in.LiquidityUSDPrior,
		TopHolderPct:      in.TopHolderPct,
		BuyCount:          in.BuyCount,
		SellCount:         in.SellCount,
		BuyVolumeUSD:      in.BuyVolumeUSD,
		SellVolumeUSD:     in.SellVolumeUSD,
		PriceUSD:          in.PriceUSD,
		MarketCapUSD:      in.MarketCapUSD,
	}
}

func main() {
	previousPath := flag.String("previous", "", "Path to the previous snapshot JSON (optional)")
	minLiquidity := flag.Float64("min-liquidity", signal.DefaultConfig().MinLiquidityUSD, "Liquidity floor in USD")
	approveAt := flag.Float64("approve-threshold", scoring.DefaultConfig().ApproveThreshold, "Minimum score for APPROVE")
	holdAt := flag.Float64("hold-threshold", scoring.DefaultConfig().HoldThreshold, "Minimum score for HOLD")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: evaluate [flags] <snapshot.json | ->")
		os.Exit(2)
	}

	current, err := readSnapshot(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		os.Exit(2)
	}

	var previous *domain.PairSnapshot
	if *previousPath != "" {
		previous, err = readSnapshot(*previousPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read previous snapshot: %v\n", err)
			os.Exit(2)
		}
	}

	sigCfg := signal.DefaultConfig()
	sigCfg.MinLiquidityUSD = *minLiquidity
	scoreCfg := scoring.DefaultConfig()
	scoreCfg.ApproveThreshold = *approveAt
	scoreCfg.HoldThreshold = *holdAt

	eng, err := engine.New(sigCfg, scoreCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(2)
	}

	verdict, err := eng.EvaluatePair(current, previous)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluate: %v\n", err)
		os.Exit(2)
	}

	out := feed.VerdictMessage{
		VerdictID:   verdict.VerdictID,
		PairID:      verdict.PairID,
		EvaluatedAt: verdict.EvaluatedAt,
		Score:       verdict.Score,
		Decision:    string(verdict.Decision),
		Signals:     make([]feed.SignalMessage, 0, len(verdict.Signals)),
	}
	for _, s := range verdict.Signals {
		out.Signals = append(out.Signals, feed.SignalMessage{
			Name:      s.Name,
			Triggered: s.Triggered,
			Severity:  string(s.Severity),
			Detail:    s.Detail,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode verdict: %v\n", err)
		os.Exit(2)
	}

	if verdict.Decision == domain.DecisionReject {
		os.Exit(1)
	}
}

// readSnapshot decodes one snapshot from a file, or stdin for "-".
func readSnapshot(path string) (*domain.PairSnapshot, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var in snapshotInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return in.toDomain(), nil
}
