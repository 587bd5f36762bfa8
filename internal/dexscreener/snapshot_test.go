package dexscreener

import (
	"errors"
	"testing"
	"time"

	"pairwatch/internal/domain"
)

func apiPair() *Pair {
	return &Pair{
		ChainID:     "solana",
		DexID:       "raydium",
		PairAddress: testPairAddress,
		PriceUsd:    "0.001",
		Txns: Txns{
			M5: TxnSummary{Buys: 40, Sells: 20},
		},
		Volume: Volume{
			M5: 13000,
		},
		Liquidity:     &Liquidity{Usd: 50000},
		MarketCap:     1200000,
		PairCreatedAt: 1748778600000, // 10 minutes before observation
	}
}

func TestToSnapshot(t *testing.T) {
	ts := time.UnixMilli(1748779200000).UTC()

	s, err := ToSnapshot(apiPair(), ts, nil)
	if err != nil {
		t.Fatalf("ToSnapshot() error: %v", err)
	}

	if s.PairID != testPairAddress {
		t.Errorf("pair id: got %q", s.PairID)
	}
	if s.ObservedAt != ts.UnixMilli() {
		t.Errorf("observed at: got %d, want %d", s.ObservedAt, ts.UnixMilli())
	}
	if s.AgeMinutes != 10 {
		t.Errorf("age: got %.2f, want 10", s.AgeMinutes)
	}
	if s.LiquidityUSD != 50000 {
		t.Errorf("liquidity: got %.0f, want 50000", s.LiquidityUSD)
	}
	if s.LiquidityUSDPrior != nil {
		t.Error("first sighting must have no prior liquidity")
	}
	if s.TopHolderPct != nil {
		t.Error("the API carries no holder data, TopHolderPct must stay nil")
	}
	if s.BuyCount != 40 || s.SellCount != 20 {
		t.Errorf("counts: got buy=%d sell=%d", s.BuyCount, s.SellCount)
	}
	// 13000 split 40:20.
	if s.BuyVolumeUSD < 8666 || s.BuyVolumeUSD > 8667 {
		t.Errorf("buy volume: got %.2f, want ~8666.67", s.BuyVolumeUSD)
	}
	if got := s.BuyVolumeUSD + s.SellVolumeUSD; got != 13000 {
		t.Errorf("split volumes must sum to the window total, got %.2f", got)
	}
	if s.MarketCapUSD == nil || *s.MarketCapUSD != 1200000 {
		t.Errorf("market cap: got %v", s.MarketCapUSD)
	}
}

func TestToSnapshot_PriorLiquidityCarried(t *testing.T) {
	prior := 80000.0
	s, err := ToSnapshot(apiPair(), time.UnixMilli(1748779200000), &prior)
	if err != nil {
		t.Fatalf("ToSnapshot() error: %v", err)
	}
	if s.LiquidityUSDPrior == nil || *s.LiquidityUSDPrior != 80000 {
		t.Errorf("prior liquidity: got %v, want 80000", s.LiquidityUSDPrior)
	}
}

func TestToSnapshot_MissingLiquidity(t *testing.T) {
	p := apiPair()
	p.Liquidity = nil

	s, err := ToSnapshot(p, time.UnixMilli(1748779200000), nil)
	if err != nil {
		t.Fatalf("ToSnapshot() error: %v", err)
	}
	if s.LiquidityUSD != 0 {
		t.Errorf("missing liquidity must map to zero, got %.0f", s.LiquidityUSD)
	}
}

func TestToSnapshot_Invalid(t *testing.T) {
	ts := time.UnixMilli(1748779200000)

	if _, err := ToSnapshot(nil, ts, nil); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("nil pair: got %v", err)
	}

	bad := apiPair()
	bad.PairAddress = "not-base58!"
	if _, err := ToSnapshot(bad, ts, nil); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("bad address: got %v", err)
	}

	badPrice := apiPair()
	badPrice.PriceUsd = "n/a"
	if _, err := ToSnapshot(badPrice, ts, nil); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Errorf("bad price: got %v", err)
	}
}

func TestSplitVolume(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		buys, sells  int
		wantBuy      float64
		wantSell     float64
	}{
		{"even split", 1000, 5, 5, 500, 500},
		{"buys only", 1000, 10, 0, 1000, 0},
		{"sells only", 1000, 0, 10, 0, 1000},
		{"no transactions", 1000, 0, 0, 0, 0},
		{"no volume", 0, 5, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buy, sell := splitVolume(tt.total, tt.buys, tt.sells)
			if buy != tt.wantBuy || sell != tt.wantSell {
				t.Errorf("got buy=%.0f sell=%.0f, want buy=%.0f sell=%.0f", buy, sell, tt.wantBuy, tt.wantSell)
			}
		})
	}
}
