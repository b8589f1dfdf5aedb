// Package notify delivers generated signals to the user.
package notify

import (
	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// Notifier receives every generated signal. Implementations must not block
// the polling cycle for long.
type Notifier interface {
	NotifyBuy(signal domain.BuySignal)
	NotifySell(signal domain.SellSignal)
}

// LogNotifier writes signals to the structured log. It is the default sink
// when no external channel is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// NotifyBuy logs an entry recommendation.
func (n *LogNotifier) NotifyBuy(signal domain.BuySignal) {
	n.log.Info().
		Str("code", signal.Code).
		Str("name", signal.Name).
		Int("strength", signal.SignalStrength).
		Float64("entry", signal.EntryPrice).
		Float64("stop_loss", signal.StopLossPrice).
		Float64("take_profit", signal.TakeProfitPrice).
		Msg("BUY signal")
}

// NotifySell logs an exit recommendation.
func (n *LogNotifier) NotifySell(signal domain.SellSignal) {
	n.log.Warn().
		Str("code", signal.Code).
		Str("name", signal.Name).
		Str("type", string(signal.Type)).
		Str("urgency", string(signal.Urgency)).
		Str("action", string(signal.Action)).
		Float64("pnl_pct", signal.PnLPct).
		Str("reason", signal.Reason).
		Msg("SELL signal")
}

// Multi fans a signal out to several notifiers.
type Multi []Notifier

func (m Multi) NotifyBuy(signal domain.BuySignal) {
	for _, n := range m {
		n.NotifyBuy(signal)
	}
}

func (m Multi) NotifySell(signal domain.SellSignal) {
	for _, n := range m {
		n.NotifySell(signal)
	}
}
