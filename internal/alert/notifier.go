// Package alert delivers verdict and trade notifications to external sinks.
package alert

import (
	"context"
	"fmt"
	"log"

	"pairwatch/internal/domain"
)

// Notifier delivers a formatted message to one sink.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes alerts to the process log. It is the fallback sink
// when no Telegram credentials are configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, text string) error {
	log.Printf("[alert] %s", text)
	return nil
}

var _ Notifier = LogNotifier{}

// FormatVerdict renders a verdict for human consumption. Only triggered
// signals are listed; a clean verdict reads as a one-liner.
func FormatVerdict(v *domain.Verdict) string {
	text := fmt.Sprintf("%s %s score=%.0f", v.Decision, v.PairID, v.Score)
	for _, s := range v.Signals {
		if s.Triggered {
			text += fmt.Sprintf("\n  [%s] %s: %s", s.Severity, s.Name, s.Detail)
		}
	}
	return text
}

// FormatTradeClosed renders a closed paper trade.
func FormatTradeClosed(t *domain.PaperTrade) string {
	return fmt.Sprintf("closed %s on %s: %s, pnl $%.2f",
		t.TradeID[:8], t.PairID, t.ExitReason, t.NetPnLUSD)
}
