package signals

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// Engine evaluates the strategy's buy and sell rules. It is stateless apart
// from its parameters and never mutates the positions it is given; callers
// are expected to push the latest price into the position before asking for
// sell signals.
type Engine struct {
	params StrategyParams
	log    zerolog.Logger
	now    func() time.Time
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(params StrategyParams, log zerolog.Logger) *Engine {
	return &Engine{
		params: params,
		log:    log.With().Str("component", "signals").Logger(),
		now:    time.Now,
	}
}

// Params returns the engine's thresholds.
func (e *Engine) Params() StrategyParams {
	return e.params
}

// ==================== Buy side ====================

// CheckBuyConditions evaluates the six entry conditions for a stock.
func (e *Engine) CheckBuyConditions(data domain.StockData) map[string]bool {
	p := e.params
	return map[string]bool{
		"ma5_above_ma20":      data.MA5 > data.MA20,
		"price_above_ma60":    data.CurrentPrice > data.MA60,
		"rsi_in_range":        data.RSI >= p.RSIMin && data.RSI <= p.RSIMax,
		"volume_ratio_ok":     data.VolumeRatio > p.VolumeRatioMin,
		"ma20_slope_positive": data.MA20Slope > 0,
		"price_not_too_high":  data.CurrentPrice < data.MA5*(1+p.MaxPriceAboveMA5Pct),
	}
}

// SignalStrength quantizes a condition map: 100 when all six conditions
// hold, 83 when exactly five do, 0 otherwise.
func (e *Engine) SignalStrength(conditions map[string]bool) int {
	met := 0
	for _, ok := range conditions {
		if ok {
			met++
		}
	}

	switch {
	case met < e.params.MinConditionsForSignal:
		return 0
	case met >= e.params.TotalBuyConditions:
		return 100
	default:
		return 83
	}
}

// GenerateBuySignal evaluates a stock and returns an entry recommendation,
// or nil when fewer than five conditions hold. Entry price is the current
// price; the derived exit prices are rounded to two decimals.
func (e *Engine) GenerateBuySignal(data domain.StockData) *domain.BuySignal {
	conditions := e.CheckBuyConditions(data)
	strength := e.SignalStrength(conditions)
	if strength == 0 {
		return nil
	}

	p := e.params
	entry := data.CurrentPrice
	signal := &domain.BuySignal{
		Code:                 data.Code,
		Name:                 data.Name,
		CurrentPrice:         data.CurrentPrice,
		SignalStrength:       strength,
		ConditionsMet:        conditions,
		EntryPrice:           round2(entry),
		StopLossPrice:        round2(entry * (1 + p.StopLossPct)),
		TakeProfitPrice:      round2(entry * (1 + p.TakeProfitPct)),
		TrailingTriggerPrice: round2(entry * (1 + p.TrailingTriggerPct)),
		GeneratedAt:          e.now(),
	}

	e.log.Debug().
		Str("code", data.Code).
		Int("strength", strength).
		Float64("entry", signal.EntryPrice).
		Msg("Buy signal generated")
	return signal
}

// ==================== Sell side ====================

// CheckStopLoss reports whether the position's loss has reached the stop
// loss line.
func (e *Engine) CheckStopLoss(pos domain.Position) bool {
	return pos.PnLPct() <= e.params.StopLossPct
}

// CheckTakeProfit reports whether the position's gain has reached the take
// profit target.
func (e *Engine) CheckTakeProfit(pos domain.Position) bool {
	return pos.PnLPct() >= e.params.TakeProfitPct
}

// CheckTrailingStop reports whether the trailing stop fires: the peak gain
// armed it and the drawdown from peak has reached the stop width.
func (e *Engine) CheckTrailingStop(pos domain.Position) bool {
	return pos.PeakPnLPct() >= e.params.TrailingTriggerPct &&
		pos.DrawdownFromPeak() >= e.params.TrailingStopPct
}

// CheckRSIOverbought reports whether RSI is overbought while the position is
// profitable.
func (e *Engine) CheckRSIOverbought(pos domain.Position, rsi float64) bool {
	return rsi > e.params.RSIOverbought && pos.PnLPct() > 0
}

// CheckTrendReversal reports whether MA5 has crossed below MA20 while the
// position is at a loss.
func (e *Engine) CheckTrendReversal(pos domain.Position, ma5, ma20 float64) bool {
	return ma5 < ma20 && pos.PnLPct() < 0
}

// CheckTimeout reports whether the position has been held for the maximum
// number of calendar days.
func (e *Engine) CheckTimeout(pos domain.Position) bool {
	return pos.HoldingDaysAt(e.now()) >= e.params.MaxHoldingDays
}

// GenerateSellSignals evaluates every exit rule and returns the triggered
// signals in priority order: stop loss, take profit, trailing stop, RSI
// overbought, trend reversal, timeout. The position is read as-is; update
// its current price first.
func (e *Engine) GenerateSellSignals(pos domain.Position, data domain.StockData) []domain.SellSignal {
	var signals []domain.SellSignal

	if e.CheckStopLoss(pos) {
		signals = append(signals, e.sellSignal(pos, domain.SignalStopLoss,
			domain.UrgencyHigh, domain.ActionImmediateSell,
			fmt.Sprintf("stop loss line breached (%.1f%%)", e.params.StopLossPct*100)))
	}
	if e.CheckTakeProfit(pos) {
		signals = append(signals, e.sellSignal(pos, domain.SignalTakeProfit,
			domain.UrgencyMedium, domain.ActionImmediateSell,
			fmt.Sprintf("take profit target reached (+%.0f%%)", e.params.TakeProfitPct*100)))
	}
	if e.CheckTrailingStop(pos) {
		signals = append(signals, e.sellSignal(pos, domain.SignalTrailingStop,
			domain.UrgencyHigh, domain.ActionImmediateSell,
			fmt.Sprintf("trailing stop fired, %.1f%% drawdown from peak", pos.DrawdownFromPeak()*100)))
	}
	if e.CheckRSIOverbought(pos, data.RSI) {
		signals = append(signals, e.sellSignal(pos, domain.SignalRSIOverbought,
			domain.UrgencyMedium, domain.ActionReducePosition,
			fmt.Sprintf("RSI overbought (%.1f > %.0f)", data.RSI, e.params.RSIOverbought)))
	}
	if e.CheckTrendReversal(pos, data.MA5, data.MA20) {
		signals = append(signals, e.sellSignal(pos, domain.SignalTrendReversal,
			domain.UrgencyMedium, domain.ActionImmediateSell,
			"MA5 crossed below MA20 while at a loss"))
	}
	if e.CheckTimeout(pos) {
		signals = append(signals, e.sellSignal(pos, domain.SignalTimeout,
			domain.UrgencyLow, domain.ActionMonitor,
			fmt.Sprintf("held for %d days or more", e.params.MaxHoldingDays)))
	}

	if len(signals) > 0 {
		e.log.Debug().
			Str("code", pos.Code).
			Int("count", len(signals)).
			Str("top", string(signals[0].Type)).
			Msg("Sell signals generated")
	}
	return signals
}

// HighestPrioritySellSignal returns the most urgent triggered exit signal,
// or nil when no rule fires.
func (e *Engine) HighestPrioritySellSignal(pos domain.Position, data domain.StockData) *domain.SellSignal {
	signals := e.GenerateSellSignals(pos, data)
	if len(signals) == 0 {
		return nil
	}
	return &signals[0]
}

func (e *Engine) sellSignal(pos domain.Position, typ domain.SignalType, urgency domain.Urgency, action domain.Action, reason string) domain.SellSignal {
	return domain.SellSignal{
		Code:         pos.Code,
		Name:         pos.Name,
		CurrentPrice: pos.CurrentPrice,
		CostPrice:    pos.CostPrice,
		PnLPct:       pos.PnLPct(),
		Type:         typ,
		Urgency:      urgency,
		Reason:       reason,
		Action:       action,
		GeneratedAt:  e.now(),
	}
}

// round2 rounds to two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
