// Package backtest replays a target-position signal series against a
// price history and measures the resulting portfolio path. The model is
// deliberately simple: one position unit per signal step, fills at the
// daily close, commission charged per unit of price traded.
package backtest

import (
	"fmt"
	"math"

	"github.com/mkarlsen/stratagem/internal/models"
)

const (
	DefaultCapital    = 10000.0
	DefaultCommission = 0.001

	tradingDays = 252
)

// Run simulates following the signal series. Signals are desired
// positions, so each step trades the difference from the previous one,
// with the position before the first bar treated as flat. Period returns
// are measured on the pre-commission path while Total is net of
// cumulative commission.
func Run(series *models.Series, signals []int, capital, commission float64) (*models.Portfolio, *models.PerformanceMetrics, error) {
	prices := series.Closes()
	n := len(prices)
	if n == 0 {
		return nil, nil, fmt.Errorf("empty price series for %s", series.Symbol)
	}
	if len(signals) != n {
		return nil, nil, fmt.Errorf("signal length %d does not match %d prices", len(signals), n)
	}

	p := &models.Portfolio{
		Signals:  append([]int(nil), signals...),
		Deltas:   make([]int, n),
		Holdings: make([]float64, n),
		Cash:     make([]float64, n),
		Total:    make([]float64, n),
		Returns:  make([]float64, n),
	}

	flow := 0.0
	fees := 0.0
	pre := make([]float64, n)
	prev := 0
	for i := 0; i < n; i++ {
		delta := signals[i] - prev
		prev = signals[i]
		p.Deltas[i] = delta
		flow += float64(delta) * prices[i]
		p.Holdings[i] = flow
		p.Cash[i] = capital - flow
		pre[i] = p.Cash[i] + p.Holdings[i]
		fees += math.Abs(float64(delta)) * prices[i] * commission
		p.Total[i] = pre[i] - fees
	}

	p.Returns[0] = math.NaN()
	for i := 1; i < n; i++ {
		p.Returns[i] = pre[i]/pre[i-1] - 1
	}

	return p, calculateMetrics(p, capital), nil
}

// calculateMetrics derives the headline performance numbers from a
// finished portfolio path.
func calculateMetrics(p *models.Portfolio, capital float64) *models.PerformanceMetrics {
	n := len(p.Total)
	final := p.Total[n-1]

	clean := make([]float64, 0, n)
	for _, r := range p.Returns {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}
	mean, std := meanStd(clean)

	sharpe := 0.0
	if std > 0 {
		sharpe = round(mean/std*math.Sqrt(tradingDays), 3)
	}

	runMax := math.Inf(-1)
	minDD := 0.0
	for _, t := range p.Total {
		if t > runMax {
			runMax = t
		}
		dd := (t - runMax) / runMax
		if dd < minDD {
			minDD = dd
		}
	}

	wins := 0
	for _, r := range clean {
		if r > 0 {
			wins++
		}
	}
	winRate := 0.0
	if len(clean) > 0 {
		winRate = round(float64(wins)/float64(len(clean))*100, 2)
	}

	return &models.PerformanceMetrics{
		TotalReturn:      round((final/capital-1)*100, 2),
		AnnualizedReturn: round(math.Pow(final/capital, tradingDays/float64(n))-1, 4) * 100,
		SharpeRatio:      sharpe,
		MaxDrawdown:      round(minDD*100, 2),
		Volatility:       round(std*math.Sqrt(tradingDays)*100, 2),
		WinRate:          winRate,
		FinalValue:       final,
		InitialCapital:   capital,
	}
}

// meanStd returns the mean and sample standard deviation; with fewer
// than two samples the deviation is reported as 0.
func meanStd(values []float64) (float64, float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
