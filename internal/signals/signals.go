// Package signals turns indicator series into discrete per-rule trade
// signals and fuses them into one overall series. Comparisons against
// NaN warm-up values never trigger a rule, so undefined regions read 0.
package signals

import "github.com/mkarlsen/stratagem/internal/models"

const (
	oversold   = 30.0
	overbought = 70.0
)

// Generate evaluates every rule whose indicator is present in the set.
// The overall series is the sign of the per-position rule sum; with no
// usable rule it stays empty.
func Generate(series *models.Series, set *models.IndicatorSet) *models.SignalSet {
	closes := series.Closes()
	out := &models.SignalSet{}
	if set.SMA20 != nil && set.SMA50 != nil {
		out.MACrossover = crossoverRule(set.SMA20, set.SMA50)
	}
	if set.RSI != nil {
		out.RSI = rsiRule(set.RSI)
	}
	if set.MACD != nil {
		out.MACD = macdRule(set.MACD)
	}
	if set.Bollinger != nil {
		out.Bollinger = bollingerRule(closes, set.Bollinger)
	}
	out.Overall = fuse(len(closes), out.MACrossover, out.RSI, out.MACD, out.Bollinger)
	return out
}

func crossoverRule(short, long []float64) []int {
	out := make([]int, len(short))
	for i := range out {
		switch {
		case short[i] > long[i]:
			out[i] = 1
		case short[i] < long[i]:
			out[i] = -1
		}
	}
	return out
}

func rsiRule(rsi []float64) []int {
	out := make([]int, len(rsi))
	for i, v := range rsi {
		switch {
		case v < oversold:
			out[i] = 1
		case v > overbought:
			out[i] = -1
		}
	}
	return out
}

func macdRule(macd *models.MACDSeries) []int {
	out := make([]int, len(macd.Line))
	for i := range out {
		switch {
		case macd.Line[i] > macd.Signal[i]:
			out[i] = 1
		case macd.Line[i] < macd.Signal[i]:
			out[i] = -1
		}
	}
	return out
}

func bollingerRule(closes []float64, bands *models.BollingerSeries) []int {
	out := make([]int, len(closes))
	for i := range out {
		switch {
		case closes[i] < bands.Lower[i]:
			out[i] = 1
		case closes[i] > bands.Upper[i]:
			out[i] = -1
		}
	}
	return out
}

func fuse(n int, rules ...[]int) []int {
	present := false
	for _, r := range rules {
		if r != nil {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		sum := 0
		for _, r := range rules {
			if r != nil {
				sum += r[i]
			}
		}
		switch {
		case sum > 0:
			out[i] = 1
		case sum < 0:
			out[i] = -1
		}
	}
	return out
}
