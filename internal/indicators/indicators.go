// Package indicators computes technical indicator series over daily
// candles. Every result aligns index-for-index with its input: positions
// where a rolling window is not yet full hold NaN instead of being
// trimmed, so downstream consumers never lose date alignment.
package indicators

import (
	"math"

	"github.com/mkarlsen/stratagem/internal/models"
)

// SMA calculates the simple moving average. The first period-1 positions
// are NaN; a window containing NaN yields NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA calculates the exponentially weighted average in span form with
// adjusted weights: each output is the weighted mean of all samples seen
// so far with weights (1-alpha)^age, alpha = 2/(span+1). Defined from
// the first valid sample onward, so there is no NaN warm-up on clean
// input. NaN samples are skipped while their positions still age the
// weights.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha
	num, den := 0.0, 0.0
	for i, v := range values {
		num *= decay
		den *= decay
		if !math.IsNaN(v) {
			num += v
			den++
		}
		if den > 0 {
			out[i] = num / den
		}
	}
	return out
}

// RSI calculates the Relative Strength Index from rolling mean gains and
// losses. The first price change is treated as flat, so the index is
// defined from position period-1. All-gain windows read 100; a window
// with neither gains nor losses reads NaN.
func RSI(values []float64, period int) []float64 {
	n := len(values)
	out := nanSlice(n)
	if n == 0 || period <= 0 {
		return out
	}
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}
	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD calculates the 12/26 EMA difference with a 9-period signal line
// and their histogram.
func MACD(values []float64) *models.MACDSeries {
	fast := EMA(values, 12)
	slow := EMA(values, 26)
	line := make([]float64, len(values))
	for i := range line {
		line[i] = fast[i] - slow[i]
	}
	signal := EMA(line, 9)
	histogram := make([]float64, len(values))
	for i := range histogram {
		histogram[i] = line[i] - signal[i]
	}
	return &models.MACDSeries{Line: line, Signal: signal, Histogram: histogram}
}

// Bollinger calculates bands at width sample standard deviations around
// the period simple moving average. Constant prices collapse all three
// bands onto the average.
func Bollinger(values []float64, period int, width float64) *models.BollingerSeries {
	middle := SMA(values, period)
	std := rollingStd(values, period)
	upper := make([]float64, len(values))
	lower := make([]float64, len(values))
	for i := range values {
		upper[i] = middle[i] + width*std[i]
		lower[i] = middle[i] - width*std[i]
	}
	return &models.BollingerSeries{Middle: middle, Upper: upper, Lower: lower}
}

// rollingStd is the windowed sample standard deviation (n-1 divisor).
func rollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(period)
		ss := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
