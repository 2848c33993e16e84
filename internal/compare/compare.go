// Package compare ranks backtested strategies by a blended
// risk-adjusted score and summarizes their headline metrics side by
// side.
package compare

import (
	"math"
	"sort"

	"github.com/mkarlsen/stratagem/internal/backtest"
	"github.com/mkarlsen/stratagem/internal/models"
)

const (
	returnWeight   = 0.5
	sharpeWeight   = 0.3
	drawdownWeight = 0.2
)

// Strategy pairs a name with the signal series to replay and the price
// series to replay it against. Comparing symbols passes each symbol's
// own history; comparing rule variants passes the same history for
// every entry.
type Strategy struct {
	Name    string
	Series  *models.Series
	Signals []int
}

// Entry is one already-backtested strategy ready for ranking.
type Entry struct {
	Name    string
	Metrics *models.PerformanceMetrics
}

// Compare backtests every strategy and assembles ranking and summary.
// Strategies whose backtest fails are left out of the result; input
// order is preserved for tie-breaking.
func Compare(strategies []Strategy, capital, commission float64) (*models.ComparisonPayload, error) {
	entries := make([]Entry, 0, len(strategies))
	results := make(map[string]*models.PerformanceMetrics, len(strategies))
	for _, s := range strategies {
		_, metrics, err := backtest.Run(s.Series, s.Signals, capital, commission)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: s.Name, Metrics: metrics})
		results[s.Name] = metrics
	}

	payload := &models.ComparisonPayload{
		Results: results,
		Ranking: Rank(entries),
		Summary: Summarize(entries),
	}
	if len(payload.Ranking) > 0 {
		payload.BestStrategy = payload.Ranking[0].Strategy
	}
	return payload, nil
}

// Rank scores every entry and sorts descending; equal scores keep input
// order.
func Rank(entries []Entry) []models.StrategyScore {
	scores := make([]models.StrategyScore, 0, len(entries))
	for _, e := range entries {
		m := e.Metrics
		score := m.TotalReturn*returnWeight +
			m.SharpeRatio*10*sharpeWeight -
			math.Abs(m.MaxDrawdown)*drawdownWeight
		scores = append(scores, models.StrategyScore{
			Strategy:    e.Name,
			Score:       round2(score),
			TotalReturn: m.TotalReturn,
			SharpeRatio: m.SharpeRatio,
			MaxDrawdown: m.MaxDrawdown,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Summarize reports best, worst and average per headline metric. Max
// drawdown compares by magnitude: the largest absolute drawdown is the
// worst.
func Summarize(entries []Entry) map[string]models.MetricSummary {
	summary := map[string]models.MetricSummary{}
	if len(entries) == 0 {
		return summary
	}

	metrics := []struct {
		name        string
		value       func(*models.PerformanceMetrics) float64
		byMagnitude bool
	}{
		{"total_return", func(m *models.PerformanceMetrics) float64 { return m.TotalReturn }, false},
		{"sharpe_ratio", func(m *models.PerformanceMetrics) float64 { return m.SharpeRatio }, false},
		{"max_drawdown", func(m *models.PerformanceMetrics) float64 { return m.MaxDrawdown }, true},
		{"volatility", func(m *models.PerformanceMetrics) float64 { return m.Volatility }, false},
	}

	for _, metric := range metrics {
		values := make([]float64, len(entries))
		for i, e := range entries {
			values[i] = metric.value(e.Metrics)
		}
		summary[metric.name] = summarizeValues(values, metric.byMagnitude)
	}
	return summary
}

func summarizeValues(values []float64, byMagnitude bool) models.MetricSummary {
	best, worst := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
		if byMagnitude {
			if math.Abs(v) < math.Abs(best) {
				best = v
			}
			if math.Abs(v) > math.Abs(worst) {
				worst = v
			}
		} else {
			if v > best {
				best = v
			}
			if v < worst {
				worst = v
			}
		}
	}
	return models.MetricSummary{
		Best:    best,
		Worst:   worst,
		Average: sum / float64(len(values)),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
