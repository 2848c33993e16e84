package display

import (
	"strings"
	"testing"

	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/query"
)

func TestResponseAllFailed(t *testing.T) {
	c := query.Classification{Query: "analyze AAPL", Category: query.StockAnalysis, Symbols: []string{"AAPL"}}
	outcomes := map[string]*models.ToolOutcome{
		"data_AAPL": models.Failf("no data"),
	}

	got := Response(c, outcomes, []string{"data_AAPL"})
	if got != failedResponse {
		t.Fatalf("Response() = %q, want %q", got, failedResponse)
	}
}

func TestResponseStockAnalysis(t *testing.T) {
	c := query.Classification{Query: "analyze AAPL", Category: query.StockAnalysis, Symbols: []string{"AAPL"}}
	outcomes := map[string]*models.ToolOutcome{
		"data_AAPL": models.Succeed(&models.FetchPayload{
			Symbol: "AAPL",
			Quote:  &models.Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: 189.5, ChangePercent: 1.25},
			Profile: &models.CompanyProfile{
				Symbol:   "AAPL",
				Name:     "Apple Inc.",
				Industry: "Technology",
			},
		}),
		"technical_AAPL": models.Succeed(&models.AnalysisPayload{Symbol: "AAPL"}),
		"signals_AAPL":   models.Succeed(&models.SignalPayload{Symbol: "AAPL"}),
		"chart_AAPL": models.Succeed(&models.ChartPayload{
			Symbol:    "AAPL",
			ChartType: "technical_chart",
			ChartPath: "/tmp/charts/technical_chart_20240315_103000.md",
		}),
	}
	order := []string{"data_AAPL", "technical_AAPL", "signals_AAPL", "chart_AAPL"}

	got := Response(c, outcomes, order)
	for _, want := range []string{
		"✅ Analysis completed successfully!",
		"📈 STOCK ANALYSIS SUMMARY",
		"🏢 AAPL:",
		"Company: Apple Inc.",
		"Industry: Technology",
		"Current Price: $189.50 (+1.25%)",
		"📊 Technical indicators calculated",
		"📡 Trading signals generated",
		"📊 Charts created: 1 file(s)",
		"technical_chart_20240315_103000.md",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
}

func TestResponseTechnicalListsComputedIndicators(t *testing.T) {
	c := query.Classification{Query: "technical TSLA", Category: query.TechnicalAnalysis, Symbols: []string{"TSLA"}}
	outcomes := map[string]*models.ToolOutcome{
		"technical_TSLA": models.Succeed(&models.AnalysisPayload{
			Symbol: "TSLA",
			Indicators: &models.IndicatorSet{
				SMA20: []float64{1, 2, 3},
				RSI:   []float64{40, 50, 60},
			},
		}),
	}

	got := Response(c, outcomes, []string{"technical_TSLA"})
	for _, want := range []string{
		"📊 TECHNICAL ANALYSIS SUMMARY",
		"🔍 TSLA:",
		"Moving averages (SMA 20, SMA 50)",
		"RSI momentum indicator",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
	for _, avoid := range []string{"MACD trend analysis", "Bollinger Bands volatility"} {
		if strings.Contains(got, avoid) {
			t.Errorf("response lists %q for an indicator that was not computed:\n%s", avoid, got)
		}
	}
}

func TestResponseBacktesting(t *testing.T) {
	c := query.Classification{Query: "backtest GOOGL", Category: query.Backtesting, Symbols: []string{"GOOGL"}}
	outcomes := map[string]*models.ToolOutcome{
		"backtest_GOOGL": models.Succeed(&models.BacktestPayload{
			Symbol: "GOOGL",
			Metrics: &models.PerformanceMetrics{
				TotalReturn: 12.5,
				SharpeRatio: 1.234,
				MaxDrawdown: -8.25,
				WinRate:     55.5,
			},
		}),
	}

	got := Response(c, outcomes, []string{"backtest_GOOGL"})
	for _, want := range []string{
		"📈 BACKTESTING RESULTS",
		"📊 GOOGL Strategy Performance:",
		"Total Return: 12.50%",
		"Sharpe Ratio: 1.234",
		"Max Drawdown: -8.25%",
		"Win Rate: 55.50%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
}

func TestResponseComparison(t *testing.T) {
	c := query.Classification{Query: "compare AAPL vs MSFT", Category: query.Comparison, Symbols: []string{"AAPL", "MSFT"}}
	outcomes := map[string]*models.ToolOutcome{
		"comparison_analysis": models.Succeed(&models.ComparisonPayload{BestStrategy: "AAPL"}),
	}

	got := Response(c, outcomes, []string{"comparison_analysis"})
	for _, want := range []string{
		"⚖️ COMPARISON ANALYSIS: AAPL vs MSFT",
		"✅ Comparative analysis completed",
		"Strategy rankings generated",
		"🏆 Best performer: AAPL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
}

func TestResponseCapsChartListing(t *testing.T) {
	c := query.Classification{Query: "compare A vs B", Category: query.Comparison, Symbols: []string{"A", "B"}}
	outcomes := map[string]*models.ToolOutcome{}
	var order []string
	for _, id := range []string{"chart_1", "chart_2", "chart_3", "chart_4"} {
		outcomes[id] = models.Succeed(&models.ChartPayload{
			ChartType: "price_chart",
			ChartPath: "/tmp/charts/" + id + ".md",
		})
		order = append(order, id)
	}

	got := Response(c, outcomes, order)
	if !strings.Contains(got, "📊 Charts created: 4 file(s)") {
		t.Fatalf("response missing chart count:\n%s", got)
	}
	for _, want := range []string{"chart_1.md", "chart_2.md", "chart_3.md"} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "chart_4.md") {
		t.Errorf("response should list at most three chart files:\n%s", got)
	}
}

func TestResponseListsReportsAndFailures(t *testing.T) {
	c := query.Classification{Query: "create a report", Category: query.Reporting}
	outcomes := map[string]*models.ToolOutcome{
		"report":     models.Succeed(&models.ReportPayload{Title: "Investment Analysis Report", ReportPath: "/tmp/reports/investment_report_20240315_103000.md"}),
		"chart_AAPL": models.Failf("chart generation failed"),
	}

	got := Response(c, outcomes, []string{"chart_AAPL", "report"})
	for _, want := range []string{
		"📄 Reports created: 1 file(s)",
		"investment_report_20240315_103000.md",
		"⚠️ 1 task(s) had issues: chart_AAPL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}
}
