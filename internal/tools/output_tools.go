package tools

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/pkg/utils"
)

// ResultSource yields the latest stored result for one symbol and tool.
// *session.Memory is the production implementation.
type ResultSource interface {
	GetResult(symbol, toolName string) (any, time.Time, bool)
}

// ChartGeneratorTool renders chart data as a markdown summary plus a
// CSV holding the plotted values. The markdown path comes back as
// chart_path.
type ChartGeneratorTool struct {
	dir   string
	clock func() time.Time
}

func NewChartGeneratorTool(dir string) *ChartGeneratorTool {
	return &ChartGeneratorTool{dir: dir, clock: time.Now}
}

func (t *ChartGeneratorTool) Name() string          { return "chart_generator" }
func (t *ChartGeneratorTool) Kind() models.TaskKind { return models.KindVisualize }

func (t *ChartGeneratorTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"chart_type": {Type: "string", Required: true, Description: "Type of chart (price_chart, technical_chart, performance_chart, comparison_chart, volume_chart)"},
		"title":      {Type: "string", Description: "Chart title"},
		"save_path":  {Type: "string", Description: "Path to save the chart"},
	}
}

// chartData is one chart ready to be written: tabular values for the
// CSV and summary lines for the markdown.
type chartData struct {
	symbol  string
	title   string
	headers []string
	rows    [][]string
	summary []string
}

func (t *ChartGeneratorTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	chartType, ok := StringParam(params, "chart_type")
	if !ok {
		return models.Failf("chart_type parameter is required")
	}
	title, _ := StringParam(params, "title")

	var chart *chartData
	var err error
	switch chartType {
	case "price_chart":
		chart, err = priceChart(params, title)
	case "technical_chart":
		chart, err = technicalChart(params, title)
	case "performance_chart":
		chart, err = performanceChart(params, title)
	case "comparison_chart":
		chart, err = comparisonChart(params, title)
	case "volume_chart":
		chart, err = volumeChart(params, title)
	default:
		return models.Failf("unsupported chart type: %s", chartType)
	}
	if err != nil {
		return models.Failf("chart generation failed: %v", err)
	}

	chartPath, dataPath, err := t.write(chartType, params, chart)
	if err != nil {
		return models.Failf("chart generation failed: %v", err)
	}
	payload := &models.ChartPayload{
		Symbol:    chart.symbol,
		ChartType: chartType,
		ChartPath: chartPath,
		DataPath:  dataPath,
	}
	return models.Succeed(payload).
		WithMeta("chart_type", chartType).
		WithMeta("title", chart.title)
}

func (t *ChartGeneratorTool) write(chartType string, params map[string]any, chart *chartData) (string, string, error) {
	chartPath, ok := StringParam(params, "save_path")
	if !ok {
		name := fmt.Sprintf("%s_%s.md", chartType, t.clock().Format("20060102_150405"))
		chartPath = filepath.Join(t.dir, name)
	}
	dataPath := strings.TrimSuffix(chartPath, filepath.Ext(chartPath)) + ".csv"

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", chart.title)
	for _, line := range chart.summary {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nData: %s\n", filepath.Base(dataPath))

	if err := utils.WriteMarkdown(filepath.Dir(chartPath), filepath.Base(chartPath), b.String()); err != nil {
		return "", "", err
	}
	if err := utils.WriteCSV(dataPath, chart.headers, chart.rows); err != nil {
		return "", "", err
	}
	return chartPath, dataPath, nil
}

func priceChart(params map[string]any, title string) (*chartData, error) {
	series, ok := seriesParam(params)
	if !ok {
		return nil, fmt.Errorf("no price data to chart")
	}
	var sma20, sma50 []float64
	if analysis, ok := params["technical"].(*models.AnalysisPayload); ok && analysis.Indicators != nil {
		sma20 = analysis.Indicators.SMA20
		sma50 = analysis.Indicators.SMA50
	}

	headers := []string{"Date", "Close"}
	if sma20 != nil {
		headers = append(headers, "SMA20")
	}
	if sma50 != nil {
		headers = append(headers, "SMA50")
	}
	rows := make([][]string, 0, len(series.Candles))
	for i, c := range series.Candles {
		row := []string{c.Date.Format("2006-01-02"), formatValue(c.Close)}
		if sma20 != nil {
			row = append(row, formatValue(sma20[i]))
		}
		if sma50 != nil {
			row = append(row, formatValue(sma50[i]))
		}
		rows = append(rows, row)
	}

	if title == "" {
		title = fmt.Sprintf("Price Chart - %s", series.Symbol)
	}
	first := series.Candles[0]
	last := series.Candles[len(series.Candles)-1]
	summary := []string{
		fmt.Sprintf("- Symbol: %s", series.Symbol),
		fmt.Sprintf("- Range: %s to %s (%d trading days)", first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(series.Candles)),
		fmt.Sprintf("- Close: %.2f to %.2f (%+.2f%%)", first.Close, last.Close, (last.Close/first.Close-1)*100),
	}
	return &chartData{symbol: series.Symbol, title: title, headers: headers, rows: rows, summary: summary}, nil
}

func technicalChart(params map[string]any, title string) (*chartData, error) {
	analysis, ok := params["technical"].(*models.AnalysisPayload)
	if !ok || analysis == nil || analysis.Indicators == nil {
		return nil, fmt.Errorf("no technical analysis results to chart")
	}
	series := analysis.Series
	if series == nil || len(series.Candles) == 0 {
		if series, ok = seriesParam(params); !ok {
			return nil, fmt.Errorf("no price data to chart")
		}
	}
	set := analysis.Indicators

	headers := []string{"Date", "Close"}
	columns := [][]float64{}
	addColumn := func(name string, values []float64) {
		if values != nil {
			headers = append(headers, name)
			columns = append(columns, values)
		}
	}
	addColumn("SMA20", set.SMA20)
	addColumn("SMA50", set.SMA50)
	addColumn("RSI", set.RSI)
	if set.MACD != nil {
		addColumn("MACD", set.MACD.Line)
		addColumn("MACDSignal", set.MACD.Signal)
		addColumn("MACDHist", set.MACD.Histogram)
	}
	if set.Bollinger != nil {
		addColumn("BBUpper", set.Bollinger.Upper)
		addColumn("BBMiddle", set.Bollinger.Middle)
		addColumn("BBLower", set.Bollinger.Lower)
	}

	rows := make([][]string, 0, len(series.Candles))
	for i, c := range series.Candles {
		row := []string{c.Date.Format("2006-01-02"), formatValue(c.Close)}
		for _, col := range columns {
			row = append(row, formatValue(col[i]))
		}
		rows = append(rows, row)
	}

	if title == "" {
		title = fmt.Sprintf("Technical Analysis - %s", series.Symbol)
	}
	last := series.Candles[len(series.Candles)-1]
	summary := []string{
		fmt.Sprintf("- Symbol: %s", series.Symbol),
		fmt.Sprintf("- Latest close: %.2f (%s)", last.Close, last.Date.Format("2006-01-02")),
	}
	if set.SMA20 != nil || set.SMA50 != nil {
		summary = append(summary, fmt.Sprintf("- SMA20: %s / SMA50: %s", latestLabel(set.SMA20), latestLabel(set.SMA50)))
	}
	if set.RSI != nil {
		summary = append(summary, fmt.Sprintf("- RSI: %s", latestLabel(set.RSI)))
	}
	if set.MACD != nil {
		summary = append(summary, fmt.Sprintf("- MACD: %s, signal %s, histogram %s",
			latestLabel(set.MACD.Line), latestLabel(set.MACD.Signal), latestLabel(set.MACD.Histogram)))
	}
	if set.Bollinger != nil {
		summary = append(summary, fmt.Sprintf("- Bollinger bands: %s / %s / %s",
			latestLabel(set.Bollinger.Upper), latestLabel(set.Bollinger.Middle), latestLabel(set.Bollinger.Lower)))
	}
	return &chartData{symbol: series.Symbol, title: title, headers: headers, rows: rows, summary: summary}, nil
}

func performanceChart(params map[string]any, title string) (*chartData, error) {
	bt, ok := params["backtest"].(*models.BacktestPayload)
	if !ok || bt == nil || bt.Portfolio == nil {
		return nil, fmt.Errorf("no backtest results to chart")
	}
	if bt.Series == nil || len(bt.Series.Candles) == 0 {
		return nil, fmt.Errorf("backtest payload carries no price series")
	}
	p := bt.Portfolio
	candles := bt.Series.Candles
	if len(p.Total) != len(candles) {
		return nil, fmt.Errorf("portfolio length %d does not match %d candles", len(p.Total), len(candles))
	}

	initial := 0.0
	if bt.Metrics != nil {
		initial = bt.Metrics.InitialCapital
	}
	scale := initial / candles[0].Close

	headers := []string{"Date", "Total", "Holdings", "Cash", "Returns", "Drawdown", "BuyHold"}
	rows := make([][]string, 0, len(candles))
	peak := math.Inf(-1)
	for i, c := range candles {
		if p.Total[i] > peak {
			peak = p.Total[i]
		}
		drawdown := (p.Total[i] - peak) / peak * 100
		rows = append(rows, []string{
			c.Date.Format("2006-01-02"),
			formatValue(p.Total[i]),
			formatValue(p.Holdings[i]),
			formatValue(p.Cash[i]),
			formatValue(p.Returns[i]),
			formatValue(drawdown),
			formatValue(c.Close * scale),
		})
	}

	if title == "" {
		title = fmt.Sprintf("Portfolio Performance - %s", bt.Symbol)
	}
	summary := []string{fmt.Sprintf("- Symbol: %s", bt.Symbol)}
	if m := bt.Metrics; m != nil {
		summary = append(summary,
			fmt.Sprintf("- Total return: %.2f%%", m.TotalReturn),
			fmt.Sprintf("- Annualized return: %.2f%%", m.AnnualizedReturn),
			fmt.Sprintf("- Sharpe ratio: %.3f", m.SharpeRatio),
			fmt.Sprintf("- Max drawdown: %.2f%%", m.MaxDrawdown),
			fmt.Sprintf("- Volatility: %.2f%%", m.Volatility),
			fmt.Sprintf("- Win rate: %.2f%%", m.WinRate),
			fmt.Sprintf("- Final value: $%.2f (from $%.2f)", m.FinalValue, m.InitialCapital),
		)
	}
	return &chartData{symbol: bt.Symbol, title: title, headers: headers, rows: rows, summary: summary}, nil
}

func comparisonChart(params map[string]any, title string) (*chartData, error) {
	cp, ok := params["comparison"].(*models.ComparisonPayload)
	if !ok || cp == nil || len(cp.Ranking) == 0 {
		return nil, fmt.Errorf("no comparison results to chart")
	}

	headers := []string{"Strategy", "Score", "TotalReturn", "SharpeRatio", "MaxDrawdown"}
	rows := make([][]string, 0, len(cp.Ranking))
	for _, s := range cp.Ranking {
		rows = append(rows, []string{
			s.Strategy,
			strconv.FormatFloat(s.Score, 'f', 2, 64),
			strconv.FormatFloat(s.TotalReturn, 'f', 2, 64),
			strconv.FormatFloat(s.SharpeRatio, 'f', 3, 64),
			strconv.FormatFloat(s.MaxDrawdown, 'f', 2, 64),
		})
	}

	if title == "" {
		title = "Strategy Comparison"
	}
	summary := []string{
		"| Rank | Strategy | Score | Total Return | Sharpe | Max Drawdown |",
		"|------|----------|-------|--------------|--------|--------------|",
	}
	for i, s := range cp.Ranking {
		summary = append(summary, fmt.Sprintf("| %d | %s | %.2f | %.2f%% | %.3f | %.2f%% |",
			i+1, s.Strategy, s.Score, s.TotalReturn, s.SharpeRatio, s.MaxDrawdown))
	}
	if cp.BestStrategy != "" {
		summary = append(summary, "", fmt.Sprintf("Best strategy: %s", cp.BestStrategy))
	}
	return &chartData{title: title, headers: headers, rows: rows, summary: summary}, nil
}

func volumeChart(params map[string]any, title string) (*chartData, error) {
	series, ok := seriesParam(params)
	if !ok {
		return nil, fmt.Errorf("no price data to chart")
	}
	var volumeSMA []float64
	if analysis, ok := params["technical"].(*models.AnalysisPayload); ok && analysis.Indicators != nil {
		volumeSMA = analysis.Indicators.VolumeSMA
	}

	headers := []string{"Date", "Close", "Volume"}
	if volumeSMA != nil {
		headers = append(headers, "VolumeSMA")
	}
	rows := make([][]string, 0, len(series.Candles))
	var totalVolume int64
	for i, c := range series.Candles {
		totalVolume += c.Volume
		row := []string{c.Date.Format("2006-01-02"), formatValue(c.Close), strconv.FormatInt(c.Volume, 10)}
		if volumeSMA != nil {
			row = append(row, formatValue(volumeSMA[i]))
		}
		rows = append(rows, row)
	}

	if title == "" {
		title = fmt.Sprintf("Price and Volume - %s", series.Symbol)
	}
	summary := []string{
		fmt.Sprintf("- Symbol: %s", series.Symbol),
		fmt.Sprintf("- Average daily volume: %d", totalVolume/int64(len(series.Candles))),
	}
	return &chartData{symbol: series.Symbol, title: title, headers: headers, rows: rows, summary: summary}, nil
}

// formatValue renders one CSV cell; NaN warm-up values become empty
// cells.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func lastValid(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

func latestLabel(values []float64) string {
	if v, ok := lastValid(values); ok {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return "n/a"
}

// ReportGeneratorTool assembles a markdown report from the session's
// stored analysis results.
type ReportGeneratorTool struct {
	dir     string
	results ResultSource
	clock   func() time.Time
}

func NewReportGeneratorTool(dir string, results ResultSource) *ReportGeneratorTool {
	return &ReportGeneratorTool{dir: dir, results: results, clock: time.Now}
}

func (t *ReportGeneratorTool) Name() string          { return "report_generator" }
func (t *ReportGeneratorTool) Kind() models.TaskKind { return models.KindReport }

func (t *ReportGeneratorTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"symbols":      {Type: "[]string", Required: true, Description: "Symbols to report on"},
		"report_title": {Type: "string", Default: "Investment Analysis Report", Description: "Report title"},
		"save_path":    {Type: "string", Description: "Path to save the report"},
	}
}

func (t *ReportGeneratorTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	symbols, ok := StringsParam(params, "symbols")
	if !ok || len(symbols) == 0 {
		return models.Failf("no analyzed symbols to report on")
	}
	if t.results == nil {
		return models.Failf("report generation failed: no session results available")
	}
	title, ok := StringParam(params, "report_title")
	if !ok {
		title = "Investment Analysis Report"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated %s\n\n", t.clock().Format("2006-01-02 15:04"))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This report covers %d symbol(s): %s.\n\n", len(symbols), strings.Join(symbols, ", "))

	for _, symbol := range symbols {
		fmt.Fprintf(&b, "## %s\n\n", symbol)
		t.stockInfoSection(&b, symbol)
		t.performanceSection(&b, symbol)
		t.technicalSection(&b, symbol)
		t.chartsSection(&b, symbol)
		t.riskSection(&b, symbol)
	}

	b.WriteString("## Recommendations\n\n")
	for _, symbol := range symbols {
		b.WriteString(t.recommendationLine(symbol))
		b.WriteString("\n")
	}

	reportPath, ok := StringParam(params, "save_path")
	if !ok {
		name := fmt.Sprintf("investment_report_%s.md", t.clock().Format("20060102_150405"))
		reportPath = filepath.Join(t.dir, name)
	}
	if err := utils.WriteMarkdown(filepath.Dir(reportPath), filepath.Base(reportPath), b.String()); err != nil {
		return models.Failf("report generation failed: %v", err)
	}

	payload := &models.ReportPayload{Title: title, ReportPath: reportPath, Symbols: symbols}
	return models.Succeed(payload).
		WithMeta("report_type", "markdown").
		WithMeta("title", title)
}

func (t *ReportGeneratorTool) stockInfoSection(b *strings.Builder, symbol string) {
	result, _, ok := t.results.GetResult(symbol, "stock_aggregator")
	if !ok {
		return
	}
	fetch, ok := result.(*models.FetchPayload)
	if !ok {
		return
	}

	b.WriteString("### Stock Information\n\n")
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(b, "| Symbol | %s |\n", symbol)
	if p := fetch.Profile; p != nil {
		if p.Name != "" {
			fmt.Fprintf(b, "| Company | %s |\n", p.Name)
		}
		if p.Industry != "" {
			fmt.Fprintf(b, "| Industry | %s |\n", p.Industry)
		}
		if p.Exchange != "" {
			fmt.Fprintf(b, "| Exchange | %s |\n", p.Exchange)
		}
		if p.MarketCap > 0 {
			fmt.Fprintf(b, "| Market Cap | %.0f |\n", p.MarketCap)
		}
	}
	if q := fetch.Quote; q != nil {
		fmt.Fprintf(b, "| Current Price | $%.2f |\n", q.Price)
		fmt.Fprintf(b, "| Change | %+.2f%% |\n", q.ChangePercent)
	}
	b.WriteString("\n")
}

func (t *ReportGeneratorTool) performanceSection(b *strings.Builder, symbol string) {
	result, _, ok := t.results.GetResult(symbol, "simple_backtester")
	if !ok {
		return
	}
	bt, ok := result.(*models.BacktestPayload)
	if !ok || bt.Metrics == nil {
		return
	}
	m := bt.Metrics

	b.WriteString("### Performance Metrics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(b, "| Total Return | %.2f%% |\n", m.TotalReturn)
	fmt.Fprintf(b, "| Annualized Return | %.2f%% |\n", m.AnnualizedReturn)
	fmt.Fprintf(b, "| Sharpe Ratio | %.3f |\n", m.SharpeRatio)
	fmt.Fprintf(b, "| Maximum Drawdown | %.2f%% |\n", m.MaxDrawdown)
	fmt.Fprintf(b, "| Volatility | %.2f%% |\n", m.Volatility)
	fmt.Fprintf(b, "| Win Rate | %.2f%% |\n", m.WinRate)
	b.WriteString("\n")
}

func (t *ReportGeneratorTool) technicalSection(b *strings.Builder, symbol string) {
	result, _, ok := t.results.GetResult(symbol, "technical_analyzer")
	if !ok {
		return
	}
	analysis, ok := result.(*models.AnalysisPayload)
	if !ok || analysis.Indicators == nil {
		return
	}
	set := analysis.Indicators

	b.WriteString("### Technical Analysis\n\n")
	if set.SMA20 != nil {
		fmt.Fprintf(b, "- SMA 20: %s\n", latestLabel(set.SMA20))
	}
	if set.SMA50 != nil {
		fmt.Fprintf(b, "- SMA 50: %s\n", latestLabel(set.SMA50))
	}
	if set.RSI != nil {
		fmt.Fprintf(b, "- RSI: %s\n", latestLabel(set.RSI))
	}
	if set.MACD != nil {
		fmt.Fprintf(b, "- MACD: %s (signal %s)\n", latestLabel(set.MACD.Line), latestLabel(set.MACD.Signal))
	}
	if set.Bollinger != nil {
		fmt.Fprintf(b, "- Bollinger bands: %s / %s / %s\n",
			latestLabel(set.Bollinger.Upper), latestLabel(set.Bollinger.Middle), latestLabel(set.Bollinger.Lower))
	}
	if word, ok := t.latestSignal(symbol); ok {
		fmt.Fprintf(b, "- Current signal: %s\n", strings.ToUpper(word))
	}
	b.WriteString("\n")
}

func (t *ReportGeneratorTool) chartsSection(b *strings.Builder, symbol string) {
	result, _, ok := t.results.GetResult(symbol, "chart_generator")
	if !ok {
		return
	}
	chart, ok := result.(*models.ChartPayload)
	if !ok {
		return
	}

	b.WriteString("### Charts\n\n")
	fmt.Fprintf(b, "- %s: %s\n\n", chart.ChartType, chart.ChartPath)
}

func (t *ReportGeneratorTool) riskSection(b *strings.Builder, symbol string) {
	result, _, ok := t.results.GetResult(symbol, "risk_analyzer")
	if !ok {
		return
	}
	risk, ok := result.(*models.RiskPayload)
	if !ok || risk.Metrics == nil {
		return
	}
	m := risk.Metrics

	b.WriteString("### Risk Analysis\n\n")
	b.WriteString("| Risk Metric | Value |\n|-------------|-------|\n")
	fmt.Fprintf(b, "| Volatility | %.2f%% |\n", m.Volatility)
	fmt.Fprintf(b, "| Value at Risk (95%%) | %.2f%% |\n", m.VaR95)
	fmt.Fprintf(b, "| Conditional VaR (95%%) | %.2f%% |\n", m.CVaR95)
	fmt.Fprintf(b, "| Skewness | %.3f |\n", m.Skewness)
	fmt.Fprintf(b, "| Kurtosis | %.3f |\n", m.Kurtosis)
	if m.Beta != nil {
		fmt.Fprintf(b, "| Beta | %.3f |\n", *m.Beta)
	}
	if m.TrackingError != nil {
		fmt.Fprintf(b, "| Tracking Error | %.2f%% |\n", *m.TrackingError)
	}
	b.WriteString("\n")
}

func (t *ReportGeneratorTool) recommendationLine(symbol string) string {
	word, ok := t.latestSignal(symbol)
	if !ok {
		return fmt.Sprintf("- %s: insufficient analysis for a recommendation.", symbol)
	}
	switch word {
	case "buy":
		return fmt.Sprintf("- %s: technical indicators lean bullish (%s).", symbol, word)
	case "sell":
		return fmt.Sprintf("- %s: technical indicators lean bearish (%s).", symbol, word)
	}
	return fmt.Sprintf("- %s: technical indicators are mixed (%s).", symbol, word)
}

func (t *ReportGeneratorTool) latestSignal(symbol string) (string, bool) {
	result, _, ok := t.results.GetResult(symbol, "trading_signals")
	if !ok {
		return "", false
	}
	sp, ok := result.(*models.SignalPayload)
	if !ok || sp.Signals == nil || len(sp.Signals.Overall) == 0 {
		return "", false
	}
	switch latest := sp.Signals.Overall[len(sp.Signals.Overall)-1]; {
	case latest > 0:
		return "buy", true
	case latest < 0:
		return "sell", true
	}
	return "hold", true
}
