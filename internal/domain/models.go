package domain

import "time"

// SignalType identifies which exit rule produced a sell signal.
type SignalType string

const (
	SignalStopLoss      SignalType = "stop_loss"
	SignalTakeProfit    SignalType = "take_profit"
	SignalTrailingStop  SignalType = "trailing_stop"
	SignalRSIOverbought SignalType = "rsi_overbought"
	SignalTrendReversal SignalType = "trend_reversal"
	SignalTimeout       SignalType = "timeout"
)

// Urgency represents how quickly a sell signal should be acted on.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Action is the recommended response to a sell signal.
type Action string

const (
	ActionImmediateSell  Action = "immediate_sell"
	ActionReducePosition Action = "reduce_position"
	ActionMonitor        Action = "monitor"
)

// Position represents a single open holding. Peak price is non-decreasing
// over the position's lifetime: SetCurrentPrice is the only price mutation
// and it raises the peak in the same step.
type Position struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	CostPrice    float64   `json:"cost_price"`
	Quantity     int64     `json:"quantity"`
	BuyDate      time.Time `json:"buy_date"`
	PeakPrice    float64   `json:"peak_price"`
	CurrentPrice float64   `json:"current_price"`
}

// NewPosition creates a position with peak and current price initialized to
// the cost price.
func NewPosition(code, name string, costPrice float64, quantity int64, buyDate time.Time) Position {
	return Position{
		Code:         code,
		Name:         name,
		CostPrice:    costPrice,
		Quantity:     quantity,
		BuyDate:      buyDate,
		PeakPrice:    costPrice,
		CurrentPrice: costPrice,
	}
}

// SetCurrentPrice updates the current price and raises the peak price to
// max(peak, price) in the same step.
func (p *Position) SetCurrentPrice(price float64) {
	p.CurrentPrice = price
	if price > p.PeakPrice {
		p.PeakPrice = price
	}
}

// MarketValue is current price times quantity.
func (p Position) MarketValue() float64 {
	return p.CurrentPrice * float64(p.Quantity)
}

// CostValue is cost price times quantity.
func (p Position) CostValue() float64 {
	return p.CostPrice * float64(p.Quantity)
}

// PnL is the unrealized profit or loss in currency units.
func (p Position) PnL() float64 {
	return p.MarketValue() - p.CostValue()
}

// PnLPct is (current - cost) / cost, or 0 for a non-positive cost price.
func (p Position) PnLPct() float64 {
	if p.CostPrice <= 0 {
		return 0.0
	}
	return (p.CurrentPrice - p.CostPrice) / p.CostPrice
}

// PeakPnLPct is (peak - cost) / cost, or 0 for a non-positive cost price.
func (p Position) PeakPnLPct() float64 {
	if p.CostPrice <= 0 {
		return 0.0
	}
	return (p.PeakPrice - p.CostPrice) / p.CostPrice
}

// DrawdownFromPeak is (peak - current) / peak, or 0 for a non-positive peak.
func (p Position) DrawdownFromPeak() float64 {
	if p.PeakPrice <= 0 {
		return 0.0
	}
	return (p.PeakPrice - p.CurrentPrice) / p.PeakPrice
}

// HoldingDays is the number of calendar days since the buy date.
func (p Position) HoldingDays() int {
	return p.HoldingDaysAt(time.Now())
}

// HoldingDaysAt calculates holding days relative to a reference time.
func (p Position) HoldingDaysAt(now time.Time) int {
	buy := time.Date(p.BuyDate.Year(), p.BuyDate.Month(), p.BuyDate.Day(), 0, 0, 0, 0, time.UTC)
	ref := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(ref.Sub(buy).Hours() / 24)
}

// StockData is an immutable per-refresh-cycle snapshot of an instrument's
// price, volume and derived indicators. Produced fresh each tick and
// consumed once by the signal engine.
type StockData struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"current_price"`
	ChangePct    float64   `json:"change_pct"`
	Volume       int64     `json:"volume"`
	Turnover     float64   `json:"turnover"`
	MA5          float64   `json:"ma5"`
	MA10         float64   `json:"ma10"`
	MA20         float64   `json:"ma20"`
	MA60         float64   `json:"ma60"`
	RSI          float64   `json:"rsi"`
	VolumeRatio  float64   `json:"volume_ratio"`
	MA20Slope    float64   `json:"ma20_slope"`
	MainFundFlow float64   `json:"main_fund_flow"`
	FundFlow5D   float64   `json:"fund_flow_5d"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BuySignal is an immutable entry recommendation. SignalStrength is
// quantized to 100 (all six conditions), 83 (five conditions) or 0 (no
// signal). The derived prices always satisfy
// stopLoss < entry < trailingTrigger < takeProfit.
type BuySignal struct {
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	CurrentPrice         float64         `json:"current_price"`
	SignalStrength       int             `json:"signal_strength"`
	ConditionsMet        map[string]bool `json:"conditions_met"`
	EntryPrice           float64         `json:"entry_price"`
	StopLossPrice        float64         `json:"stop_loss_price"`
	TakeProfitPrice      float64         `json:"take_profit_price"`
	TrailingTriggerPrice float64         `json:"trailing_trigger_price"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// SellSignal is an immutable exit recommendation for an open position.
type SellSignal struct {
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	CurrentPrice float64    `json:"current_price"`
	CostPrice    float64    `json:"cost_price"`
	PnLPct       float64    `json:"pnl_pct"`
	Type         SignalType `json:"signal_type"`
	Urgency      Urgency    `json:"urgency"`
	Reason       string     `json:"reason"`
	Action       Action     `json:"action"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// Quote is a realtime quote as returned by the data-retrieval collaborator.
type Quote struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	ChangePct    float64 `json:"change_pct"`
	Volume       int64   `json:"volume"`
	Turnover     float64 `json:"turnover"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	PrevClose    float64 `json:"prev_close"`
}

// Kline is one bar of a time-ordered daily OHLCV series.
type Kline struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// FundFlow holds main-capital net inflow figures for an instrument.
// Best-effort data: a zero value means unavailable.
type FundFlow struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	MainNetInflow  float64 `json:"main_net_inflow"`
	MainNetInflow5 float64 `json:"main_net_inflow_5d"`
}

// PositionSummary aggregates the open positions.
type PositionSummary struct {
	PositionCount    int     `json:"position_count"`
	TotalMarketValue float64 `json:"total_market_value"`
	TotalCostValue   float64 `json:"total_cost_value"`
	TotalPnL         float64 `json:"total_pnl"`
	TotalPnLPct      float64 `json:"total_pnl_pct"`
}
