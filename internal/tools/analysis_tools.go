package tools

import (
	"context"
	"math"

	"github.com/mkarlsen/stratagem/internal/backtest"
	"github.com/mkarlsen/stratagem/internal/compare"
	"github.com/mkarlsen/stratagem/internal/indicators"
	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/signals"
)

// seriesParam reads the price series a dependency forwarded under the
// data key.
func seriesParam(params map[string]any) (*models.Series, bool) {
	series, ok := params["data"].(*models.Series)
	if !ok || series == nil || len(series.Candles) == 0 {
		return nil, false
	}
	return series, true
}

// TechnicalAnalyzerTool computes the requested indicator set over a
// fetched price series.
type TechnicalAnalyzerTool struct {
	defaults []string
}

func NewTechnicalAnalyzerTool(defaults []string) *TechnicalAnalyzerTool {
	if len(defaults) == 0 {
		defaults = indicators.Default
	}
	return &TechnicalAnalyzerTool{defaults: defaults}
}

func (t *TechnicalAnalyzerTool) Name() string          { return "technical_analyzer" }
func (t *TechnicalAnalyzerTool) Kind() models.TaskKind { return models.KindAnalyze }

func (t *TechnicalAnalyzerTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"data":       {Type: "series", Required: true, Description: "Stock price data"},
		"indicators": {Type: "[]string", Default: t.defaults, Description: "List of indicators to calculate"},
	}
}

func (t *TechnicalAnalyzerTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	series, ok := seriesParam(params)
	if !ok {
		return models.Failf("%v: technical analysis needs a price series", ErrUpstreamDataUnavailable)
	}
	names, ok := StringsParam(params, "indicators")
	if !ok || len(names) == 0 {
		names = t.defaults
	}

	set := indicators.Compute(series, names)
	payload := &models.AnalysisPayload{
		Symbol:     series.Symbol,
		Series:     series,
		Indicators: set,
	}
	return models.Succeed(payload).WithMeta("indicators", names)
}

// TradingSignalsTool derives per-rule and overall trade signals from a
// computed indicator set.
type TradingSignalsTool struct{}

func NewTradingSignalsTool() *TradingSignalsTool { return &TradingSignalsTool{} }

func (t *TradingSignalsTool) Name() string          { return "trading_signals" }
func (t *TradingSignalsTool) Kind() models.TaskKind { return models.KindAnalyze }

func (t *TradingSignalsTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"data":      {Type: "series", Required: true, Description: "Stock price data"},
		"technical": {Type: "analysis", Required: true, Description: "Technical analysis results"},
	}
}

func (t *TradingSignalsTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	analysis, ok := params["technical"].(*models.AnalysisPayload)
	if !ok || analysis == nil || analysis.Indicators == nil {
		return models.Failf("%v: signal generation needs technical analysis results", ErrUpstreamDataUnavailable)
	}
	series, ok := seriesParam(params)
	if !ok {
		series = analysis.Series
	}
	if series == nil || len(series.Candles) == 0 {
		return models.Failf("%v: signal generation needs a price series", ErrUpstreamDataUnavailable)
	}

	set := signals.Generate(series, analysis.Indicators)
	payload := &models.SignalPayload{
		Symbol:  series.Symbol,
		Series:  series,
		Signals: set,
	}
	return models.Succeed(payload).WithMeta("signals_generated", signalNames(set))
}

func signalNames(set *models.SignalSet) []string {
	var out []string
	if set.MACrossover != nil {
		out = append(out, "ma_signal")
	}
	if set.RSI != nil {
		out = append(out, "rsi_signal")
	}
	if set.MACD != nil {
		out = append(out, "macd_signal")
	}
	if set.Bollinger != nil {
		out = append(out, "bb_signal")
	}
	out = append(out, "overall_signal")
	return out
}

// SimpleBacktesterTool replays an overall signal series against its
// price history and reports the portfolio path and headline metrics.
type SimpleBacktesterTool struct {
	capital    float64
	commission float64
}

func NewSimpleBacktesterTool(capital, commission float64) *SimpleBacktesterTool {
	if capital <= 0 {
		capital = backtest.DefaultCapital
	}
	if commission < 0 {
		commission = backtest.DefaultCommission
	}
	return &SimpleBacktesterTool{capital: capital, commission: commission}
}

func (t *SimpleBacktesterTool) Name() string          { return "simple_backtester" }
func (t *SimpleBacktesterTool) Kind() models.TaskKind { return models.KindAnalyze }

func (t *SimpleBacktesterTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"data":            {Type: "series", Required: true, Description: "Stock price data"},
		"signals":         {Type: "signal", Required: true, Description: "Trading signals"},
		"initial_capital": {Type: "float", Default: t.capital, Description: "Initial capital for backtesting"},
		"commission":      {Type: "float", Default: t.commission, Description: "Commission rate per trade"},
	}
}

func (t *SimpleBacktesterTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	sp, ok := params["signals"].(*models.SignalPayload)
	if !ok || sp == nil || sp.Signals == nil || len(sp.Signals.Overall) == 0 {
		return models.Failf("%v: backtesting needs a trading signal series", ErrUpstreamDataUnavailable)
	}
	series, ok := seriesParam(params)
	if !ok {
		series = sp.Series
	}
	if series == nil || len(series.Candles) == 0 {
		return models.Failf("%v: backtesting needs a price series", ErrUpstreamDataUnavailable)
	}
	capital, ok := FloatParam(params, "initial_capital")
	if !ok || capital <= 0 {
		capital = t.capital
	}
	commission, ok := FloatParam(params, "commission")
	if !ok || commission < 0 {
		commission = t.commission
	}

	portfolio, metrics, err := backtest.Run(series, sp.Signals.Overall, capital, commission)
	if err != nil {
		return models.Failf("backtesting failed: %v", err)
	}
	payload := &models.BacktestPayload{
		Symbol:    series.Symbol,
		Series:    series,
		Portfolio: portfolio,
		Metrics:   metrics,
	}
	return models.Succeed(payload).
		WithMeta("initial_capital", capital).
		WithMeta("commission", commission).
		WithMeta("strategy_type", "signal_based")
}

// StrategyComparisonTool backtests every upstream signal series and
// ranks the results.
type StrategyComparisonTool struct {
	capital    float64
	commission float64
}

func NewStrategyComparisonTool(capital, commission float64) *StrategyComparisonTool {
	if capital <= 0 {
		capital = backtest.DefaultCapital
	}
	if commission < 0 {
		commission = backtest.DefaultCommission
	}
	return &StrategyComparisonTool{capital: capital, commission: commission}
}

func (t *StrategyComparisonTool) Name() string          { return "strategy_comparison" }
func (t *StrategyComparisonTool) Kind() models.TaskKind { return models.KindCompare }

func (t *StrategyComparisonTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"strategy_signals": {Type: "[]signal", Required: true, Description: "Signal payloads of the strategies to compare"},
		"initial_capital":  {Type: "float", Default: t.capital, Description: "Initial capital for backtesting"},
		"commission":       {Type: "float", Default: t.commission, Description: "Commission rate per trade"},
	}
}

func (t *StrategyComparisonTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	sigs, ok := params["strategy_signals"].([]*models.SignalPayload)
	if !ok || len(sigs) == 0 {
		return models.Failf("%v: strategy comparison needs signal results", ErrUpstreamDataUnavailable)
	}
	capital, ok := FloatParam(params, "initial_capital")
	if !ok || capital <= 0 {
		capital = t.capital
	}
	commission, ok := FloatParam(params, "commission")
	if !ok || commission < 0 {
		commission = t.commission
	}

	strategies := make([]compare.Strategy, 0, len(sigs))
	for _, sp := range sigs {
		if sp == nil || sp.Series == nil || sp.Signals == nil || len(sp.Signals.Overall) == 0 {
			continue
		}
		strategies = append(strategies, compare.Strategy{
			Name:    sp.Symbol,
			Series:  sp.Series,
			Signals: sp.Signals.Overall,
		})
	}
	if len(strategies) == 0 {
		return models.Failf("%v: no comparable strategies with both prices and signals", ErrUpstreamDataUnavailable)
	}

	payload, err := compare.Compare(strategies, capital, commission)
	if err != nil {
		return models.Failf("strategy comparison failed: %v", err)
	}
	return models.Succeed(payload).
		WithMeta("strategies_compared", len(strategies)).
		WithMeta("initial_capital", capital)
}

// RiskAnalyzerTool computes distribution risk metrics over a backtested
// portfolio's daily returns.
type RiskAnalyzerTool struct{}

func NewRiskAnalyzerTool() *RiskAnalyzerTool { return &RiskAnalyzerTool{} }

func (t *RiskAnalyzerTool) Name() string          { return "risk_analyzer" }
func (t *RiskAnalyzerTool) Kind() models.TaskKind { return models.KindAnalyze }

func (t *RiskAnalyzerTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"portfolio_returns": {Type: "[]float64", Description: "Daily portfolio returns; taken from an upstream backtest when absent"},
		"benchmark_returns": {Type: "[]float64", Description: "Benchmark returns for comparison"},
	}
}

func (t *RiskAnalyzerTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	symbol := ""
	returns, ok := FloatsParam(params, "portfolio_returns")
	if !ok {
		if bt, btOK := params["backtest"].(*models.BacktestPayload); btOK && bt.Portfolio != nil {
			returns = bt.Portfolio.Returns
			symbol = bt.Symbol
		}
	}
	returns = dropNaN(returns)
	if len(returns) == 0 {
		return models.Failf("%v: risk analysis needs portfolio returns", ErrUpstreamDataUnavailable)
	}
	raw, _ := FloatsParam(params, "benchmark_returns")
	benchmark := dropNaN(raw)
	if len(benchmark) == 0 {
		benchmark = nil
	}

	metrics, err := backtest.AnalyzeRisk(returns, benchmark)
	if err != nil {
		return models.Failf("risk analysis failed: %v", err)
	}
	payload := &models.RiskPayload{Symbol: symbol, Metrics: metrics}
	return models.Succeed(payload).WithMeta("analysis_type", "risk_analysis")
}

// dropNaN strips the NaN warm-up entries a return series carries.
func dropNaN(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
