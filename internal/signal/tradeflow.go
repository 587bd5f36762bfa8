package signal

import (
	"fmt"
	"math"

	"pairwatch/internal/domain"
)

// TradeFlow flags sustained net selling pressure. The ratio is
// sell_volume / max(buy_volume, epsilon) so a zero buy side never divides
// by zero. Buy dominance or balanced flow is INFO, never a positive credit.
type TradeFlow struct {
	SellBuyRatioWarn float64
}

func (e *TradeFlow) Name() string { return domain.SignalTradeFlow }

func (e *TradeFlow) Extract(current, _ *domain.PairSnapshot) domain.SignalResult {
	ratio := current.SellVolumeUSD / math.Max(current.BuyVolumeUSD, epsilon)

	if ratio > e.SellBuyRatioWarn {
		return domain.SignalResult{
			Name:      e.Name(),
			Triggered: true,
			Severity:  domain.SeverityWarn,
			Detail:    fmt.Sprintf("sell/buy volume ratio %.2f exceeds %.2f", ratio, e.SellBuyRatioWarn),
		}
	}
	return domain.SignalResult{
		Name:     e.Name(),
		Severity: domain.SeverityInfo,
		Detail:   fmt.Sprintf("sell/buy volume ratio %.2f", ratio),
	}
}

var _ Extractor = (*TradeFlow)(nil)
