// Package signals implements the buy and sell rule set for the tech-stock
// swing strategy.
package signals

// StrategyParams holds every tunable threshold of the strategy. Construct
// once and treat as immutable.
type StrategyParams struct {
	// Exit thresholds, as fractions of cost price.
	StopLossPct        float64 // loss at which the position is cut
	TakeProfitPct      float64 // gain at which profit is taken
	TrailingTriggerPct float64 // peak gain that arms the trailing stop
	TrailingStopPct    float64 // drawdown from peak that fires it

	// RSI thresholds.
	RSIMin        float64 // lower bound of the buy window, inclusive
	RSIMax        float64 // upper bound of the buy window, inclusive
	RSIOverbought float64 // sell-side overbought level, exclusive
	RSIPeriod     int

	// Volume confirmation.
	VolumeRatioMin    float64 // buy requires volume ratio strictly above this
	VolumeRatioPeriod int

	// Moving averages.
	MA5Period     int
	MA10Period    int
	MA20Period    int
	MA60Period    int
	MASlopePeriod int

	// Chase guard: price must stay under MA5 x (1 + this).
	MaxPriceAboveMA5Pct float64

	// Holding-time limit in calendar days.
	MaxHoldingDays int

	// Buy signal quantization.
	MinConditionsForSignal int
	TotalBuyConditions     int
}

// DefaultStrategyParams returns the production thresholds.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		StopLossPct:        -0.046,
		TakeProfitPct:      0.22,
		TrailingTriggerPct: 0.09,
		TrailingStopPct:    0.028,

		RSIMin:        44,
		RSIMax:        70,
		RSIOverbought: 80,
		RSIPeriod:     14,

		VolumeRatioMin:    1.1,
		VolumeRatioPeriod: 5,

		MA5Period:     5,
		MA10Period:    10,
		MA20Period:    20,
		MA60Period:    60,
		MASlopePeriod: 5,

		MaxPriceAboveMA5Pct: 0.05,

		MaxHoldingDays: 15,

		MinConditionsForSignal: 5,
		TotalBuyConditions:     6,
	}
}
