package signals

import (
	"fmt"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// SellRecommendation is the human-readable expansion of a sell signal.
type SellRecommendation struct {
	UrgencyDescription string `json:"urgency_description"`
	ActionDescription  string `json:"action_description"`
	ReasonExplanation  string `json:"reason_explanation"`
}

// SellRecommendationFor expands a sell signal into trading guidance.
func (e *Engine) SellRecommendationFor(signal domain.SellSignal) SellRecommendation {
	return SellRecommendation{
		UrgencyDescription: urgencyDescription(signal.Urgency),
		ActionDescription:  actionDescription(signal.Action),
		ReasonExplanation:  e.reasonExplanation(signal),
	}
}

func urgencyDescription(u domain.Urgency) string {
	switch u {
	case domain.UrgencyHigh:
		return "high - act immediately"
	case domain.UrgencyMedium:
		return "medium - handle soon"
	case domain.UrgencyLow:
		return "low - keep watching"
	}
	return "unknown"
}

func actionDescription(a domain.Action) string {
	switch a {
	case domain.ActionImmediateSell:
		return "sell immediately - close the whole position"
	case domain.ActionReducePosition:
		return "reduce - sell part of the position"
	case domain.ActionMonitor:
		return "monitor - watch the next sessions closely"
	}
	return "unknown"
}

func (e *Engine) reasonExplanation(signal domain.SellSignal) string {
	p := e.params
	switch signal.Type {
	case domain.SignalStopLoss:
		return fmt.Sprintf("price fell through the stop loss line (%.1f%%); cut the loss to contain risk", p.StopLossPct*100)
	case domain.SignalTakeProfit:
		return fmt.Sprintf("price reached the take profit target (+%.0f%%); lock in the gain", p.TakeProfitPct*100)
	case domain.SignalTrailingStop:
		return fmt.Sprintf("price retraced more than %.1f%% from its peak; the trailing stop fired to protect profit", p.TrailingStopPct*100)
	case domain.SignalRSIOverbought:
		return fmt.Sprintf("RSI is above %.0f and the position is profitable; trim to bank part of the gain", p.RSIOverbought)
	case domain.SignalTrendReversal:
		return "MA5 crossed below MA20 while the position is under water; the trend may have reversed"
	case domain.SignalTimeout:
		return fmt.Sprintf("position held for %d days or more; capital efficiency is dropping, reassess the thesis", p.MaxHoldingDays)
	}
	return signal.Reason
}
