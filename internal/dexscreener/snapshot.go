package dexscreener

import (
	"fmt"
	"strconv"
	"time"

	"pairwatch/internal/domain"
)

// ToSnapshot converts an API pair into a domain snapshot observed at ts.
// The API reports volume per window but not per side, so the 5-minute
// volume is split across buy/sell in proportion to transaction counts.
// priorLiquidity comes from the caller's previous observation of the same
// pair; nil on first sighting.
func ToSnapshot(p *Pair, ts time.Time, priorLiquidity *float64) (*domain.PairSnapshot, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pair", domain.ErrInvalidSnapshot)
	}
	if err := ValidateAddress(p.PairAddress); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}

	price := 0.0
	if p.PriceUsd != "" {
		v, err := strconv.ParseFloat(p.PriceUsd, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: priceUsd %q: %v", domain.ErrInvalidSnapshot, p.PriceUsd, err)
		}
		price = v
	}

	liquidity := 0.0
	if p.Liquidity != nil {
		liquidity = p.Liquidity.Usd
	}

	age := 0.0
	if p.PairCreatedAt > 0 {
		age = ts.Sub(time.UnixMilli(p.PairCreatedAt)).Minutes()
		if age < 0 {
			age = 0
		}
	}

	buyVol, sellVol := splitVolume(p.Volume.M5, p.Txns.M5.Buys, p.Txns.M5.Sells)

	s := &domain.PairSnapshot{
		PairID:            p.PairAddress,
		ObservedAt:        ts.UnixMilli(),
		AgeMinutes:        age,
		LiquidityUSD:      liquidity,
		LiquidityUSDPrior: priorLiquidity,
		BuyCount:          p.Txns.M5.Buys,
		SellCount:         p.Txns.M5.Sells,
		BuyVolumeUSD:      buyVol,
		SellVolumeUSD:     sellVol,
		PriceUSD:          price,
	}
	if p.MarketCap > 0 {
		mc := p.MarketCap
		s.MarketCapUSD = &mc
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// splitVolume apportions a window's total volume across buy and sell sides
// by transaction count. With no transactions the whole window is zero.
func splitVolume(total float64, buys, sells int) (buyVol, sellVol float64) {
	n := buys + sells
	if n == 0 || total <= 0 {
		return 0, 0
	}
	buyVol = total * float64(buys) / float64(n)
	sellVol = total - buyVol
	return buyVol, sellVol
}
