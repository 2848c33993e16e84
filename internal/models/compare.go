package models

type StrategyScore struct {
	Strategy    string  `json:"strategy"`
	Score       float64 `json:"score"`
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

type MetricSummary struct {
	Best    float64 `json:"best"`
	Worst   float64 `json:"worst"`
	Average float64 `json:"average"`
}

type ComparisonPayload struct {
	Results      map[string]*PerformanceMetrics `json:"comparison"`
	Ranking      []StrategyScore                `json:"ranking"`
	Summary      map[string]MetricSummary       `json:"summary"`
	BestStrategy string                         `json:"best_strategy,omitempty"`
}
