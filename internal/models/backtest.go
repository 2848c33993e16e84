package models

// Portfolio is the day-by-day simulation path of a signal-following
// strategy. All slices share the candle index. Total is net of
// commission; Returns are daily changes of the pre-commission path, NaN
// at index 0.
type Portfolio struct {
	Signals  []int     `json:"signal"`
	Deltas   []int     `json:"positions"`
	Holdings []float64 `json:"holdings"`
	Cash     []float64 `json:"cash"`
	Total    []float64 `json:"total"`
	Returns  []float64 `json:"returns"`
}

type PerformanceMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Volatility       float64 `json:"volatility"`
	WinRate          float64 `json:"win_rate"`
	FinalValue       float64 `json:"final_value"`
	InitialCapital   float64 `json:"initial_capital"`
}

type RiskMetrics struct {
	Volatility       float64  `json:"volatility"`
	VaR95            float64  `json:"var_95"`
	CVaR95           float64  `json:"cvar_95"`
	Skewness         float64  `json:"skewness"`
	Kurtosis         float64  `json:"kurtosis"`
	TrackingError    *float64 `json:"tracking_error,omitempty"`
	InformationRatio *float64 `json:"information_ratio,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
}

type BacktestPayload struct {
	Symbol    string              `json:"symbol"`
	Series    *Series             `json:"series,omitempty"`
	Portfolio *Portfolio          `json:"portfolio,omitempty"`
	Metrics   *PerformanceMetrics `json:"metrics"`
}

type RiskPayload struct {
	Symbol  string       `json:"symbol"`
	Metrics *RiskMetrics `json:"risk_metrics"`
}
