package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// The indicator functions in this package degrade to defined neutral values
// when the input series is too short: RSI returns 50, the volume ratio
// returns 1.0 and the MA slope returns 0. Callers must not treat a neutral
// value as a real market condition. MovingAverage is the exception and
// returns NaN, because there is no meaningful neutral price level.

// MovingAverage calculates the simple moving average over the last `period`
// values of a time-ordered series (most recent value last).
//
// Returns NaN if fewer than `period` values exist.
func MovingAverage(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return math.NaN()
	}
	return Mean(series[len(series)-period:])
}

// MovingAverageSeries calculates the full SMA series for a price series.
// Values inside the lookback window are not meaningful.
func MovingAverageSeries(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	return talib.Sma(series, period)
}

// RSI calculates the Relative Strength Index over `period` using simple
// averages of gains and losses:
//
//	RS  = avg(gains) / avg(losses) over the last `period` deltas
//	RSI = 100 - 100/(1+RS)
//
// Returns the neutral value 50 when fewer than period+1 points exist or
// when the average loss is zero (RS undefined).
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0
	}

	gains := make([]float64, period)
	losses := make([]float64, period)
	start := len(closes) - period
	for i := 0; i < period; i++ {
		delta := closes[start+i] - closes[start+i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := Mean(gains)
	avgLoss := Mean(losses)
	if avgLoss <= 0 {
		return 50.0
	}

	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	if isNaN(rsi) {
		return 50.0
	}
	return rsi
}

// VolumeRatio calculates the latest volume divided by the mean of the
// preceding `period` volumes (the latest volume is excluded from the mean).
// A ratio above 1 indicates above-average activity.
//
// Returns the neutral value 1.0 when fewer than period+1 points exist or
// when the trailing average is not positive.
func VolumeRatio(volumes []float64, period int) float64 {
	if period <= 0 || len(volumes) < period+1 {
		return 1.0
	}

	current := volumes[len(volumes)-1]
	avg := Mean(volumes[len(volumes)-1-period : len(volumes)-1])
	if avg <= 0 || isNaN(avg) {
		return 1.0
	}

	return current / avg
}

// MASlope calculates the percentage change of a moving-average series over
// `lookback` values: (latest - past) / past * 100.
//
// Returns 0 when the series is too short or the past value is not positive.
func MASlope(maSeries []float64, lookback int) float64 {
	if lookback <= 0 || len(maSeries) < lookback {
		return 0.0
	}

	current := maSeries[len(maSeries)-1]
	past := maSeries[len(maSeries)-lookback]
	if isNaN(current) || isNaN(past) || past <= 0 {
		return 0.0
	}

	return (current - past) / past * 100.0
}

// MASlopeFromPrices calculates the MA slope directly from a price series.
func MASlopeFromPrices(prices []float64, maPeriod, slopeDays int) float64 {
	if len(prices) < maPeriod+slopeDays {
		return 0.0
	}
	return MASlope(MovingAverageSeries(prices, maPeriod), slopeDays)
}
