package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/mkarlsen/stratagem/internal/models"
)

// AnalyzeRisk computes distribution risk metrics over a daily return
// series: annualized volatility, 95% value-at-risk with its conditional
// tail mean, and the adjusted sample skewness and excess kurtosis. A
// benchmark of matching length adds tracking error, information ratio
// and beta. At least four returns are required so every moment estimate
// is defined.
func AnalyzeRisk(returns, benchmark []float64) (*models.RiskMetrics, error) {
	n := len(returns)
	if n < 4 {
		return nil, fmt.Errorf("insufficient returns: need 4, have %d", n)
	}

	_, std := meanStd(returns)
	p5 := percentile(returns, 5)
	tailSum := 0.0
	tailCount := 0
	for _, r := range returns {
		if r <= p5 {
			tailSum += r
			tailCount++
		}
	}

	metrics := &models.RiskMetrics{
		Volatility: std * math.Sqrt(tradingDays) * 100,
		VaR95:      p5 * 100,
		CVaR95:     tailSum / float64(tailCount) * 100,
		Skewness:   skewness(returns),
		Kurtosis:   kurtosis(returns),
	}

	if benchmark == nil {
		return metrics, nil
	}
	if len(benchmark) != n {
		return nil, fmt.Errorf("benchmark length %d does not match %d returns", len(benchmark), n)
	}

	excess := make([]float64, n)
	for i := range returns {
		excess[i] = returns[i] - benchmark[i]
	}
	exMean, exStd := meanStd(excess)
	trackingError := exStd * math.Sqrt(tradingDays) * 100
	informationRatio := 0.0
	if exStd > 0 {
		informationRatio = exMean / exStd * math.Sqrt(tradingDays)
	}
	beta := 0.0
	_, benchStd := meanStd(benchmark)
	if benchVar := benchStd * benchStd; benchVar > 0 {
		beta = covariance(returns, benchmark) / benchVar
	}
	metrics.TrackingError = &trackingError
	metrics.InformationRatio = &informationRatio
	metrics.Beta = &beta
	return metrics, nil
}

// percentile interpolates linearly between order statistics, matching
// the numpy default.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// skewness is the adjusted Fisher-Pearson sample skewness; a constant
// series reads 0.
func skewness(values []float64) float64 {
	n := float64(len(values))
	mean, _ := meanStd(values)
	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	if m2 == 0 {
		return 0
	}
	return n * math.Sqrt(n-1) / (n - 2) * m3 / math.Pow(m2, 1.5)
}

// kurtosis is the adjusted sample excess kurtosis; a constant series
// reads 0.
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	mean, _ := meanStd(values)
	var m2, m4 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	if m2 == 0 {
		return 0
	}
	adj := n * (n + 1) * (n - 1) / ((n - 2) * (n - 3))
	return adj*m4/(m2*m2) - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// covariance is the sample covariance of two equal-length series.
func covariance(a, b []float64) float64 {
	n := float64(len(a))
	meanA, _ := meanStd(a)
	meanB, _ := meanStd(b)
	sum := 0.0
	for i := range a {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / (n - 1)
}
