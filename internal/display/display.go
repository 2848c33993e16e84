// Package display renders executed plans into the text responses shown
// to the user.
package display

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/query"
)

const (
	failedResponse = "❌ Analysis failed. Please check your input and try again."
	maxChartLines  = 3
)

// Response builds the user-facing summary for one executed plan.
// Outcomes maps task IDs to results; order is the order tasks ran in,
// which keeps artifact listings stable.
func Response(c query.Classification, outcomes map[string]*models.ToolOutcome, order []string) string {
	if !anySucceeded(outcomes) {
		return failedResponse
	}

	parts := []string{"✅ Analysis completed successfully!", ""}

	switch c.Category {
	case query.StockAnalysis:
		parts = append(parts, stockAnalysisSummary(c.Symbols, outcomes))
	case query.Comparison:
		parts = append(parts, comparisonSummary(c.Symbols, outcomes))
	case query.TechnicalAnalysis:
		parts = append(parts, technicalSummary(c.Symbols, outcomes))
	case query.Backtesting:
		parts = append(parts, backtestingSummary(c.Symbols, outcomes))
	}

	parts = append(parts, artifactLines(outcomes, order)...)

	if failed := failedIDs(outcomes, order); len(failed) > 0 {
		parts = append(parts, "", fmt.Sprintf("⚠️ %d task(s) had issues: %s", len(failed), strings.Join(failed, ", ")))
	}

	return strings.Join(parts, "\n")
}

func stockAnalysisSummary(symbols []string, outcomes map[string]*models.ToolOutcome) string {
	lines := []string{"📈 STOCK ANALYSIS SUMMARY"}
	for _, symbol := range symbols {
		lines = append(lines, "", fmt.Sprintf("🏢 %s:", symbol))
		if fetch := fetchPayload(outcomes, "data_"+symbol); fetch != nil {
			if name := companyName(fetch); name != "" {
				lines = append(lines, "   Company: "+name)
			}
			if fetch.Profile != nil && fetch.Profile.Industry != "" {
				lines = append(lines, "   Industry: "+fetch.Profile.Industry)
			}
			if fetch.Quote != nil && fetch.Quote.Price > 0 {
				lines = append(lines, fmt.Sprintf("   Current Price: $%.2f (%+.2f%%)", fetch.Quote.Price, fetch.Quote.ChangePercent))
			}
		}
		if succeeded(outcomes, "technical_"+symbol) {
			lines = append(lines, "   📊 Technical indicators calculated")
		}
		if succeeded(outcomes, "signals_"+symbol) {
			lines = append(lines, "   📡 Trading signals generated")
		}
	}
	return strings.Join(lines, "\n")
}

func comparisonSummary(symbols []string, outcomes map[string]*models.ToolOutcome) string {
	lines := []string{"⚖️ COMPARISON ANALYSIS: " + strings.Join(symbols, " vs ")}
	if cp := comparisonPayload(outcomes, "comparison_analysis"); cp != nil {
		lines = append(lines, "",
			"✅ Comparative analysis completed",
			"   • Performance metrics calculated",
			"   • Risk-adjusted returns compared",
			"   • Strategy rankings generated")
		if cp.BestStrategy != "" {
			lines = append(lines, "   🏆 Best performer: "+cp.BestStrategy)
		}
	}
	return strings.Join(lines, "\n")
}

func technicalSummary(symbols []string, outcomes map[string]*models.ToolOutcome) string {
	lines := []string{"📊 TECHNICAL ANALYSIS SUMMARY"}
	for _, symbol := range symbols {
		lines = append(lines, "", fmt.Sprintf("🔍 %s:", symbol))
		analysis := analysisPayload(outcomes, "technical_"+symbol)
		if analysis == nil || analysis.Indicators == nil {
			continue
		}
		lines = append(lines, "   ✅ Technical indicators:")
		ind := analysis.Indicators
		if ind.SMA20 != nil || ind.SMA50 != nil {
			lines = append(lines, "     • Moving averages (SMA 20, SMA 50)")
		}
		if ind.RSI != nil {
			lines = append(lines, "     • RSI momentum indicator")
		}
		if ind.MACD != nil {
			lines = append(lines, "     • MACD trend analysis")
		}
		if ind.Bollinger != nil {
			lines = append(lines, "     • Bollinger Bands volatility")
		}
	}
	return strings.Join(lines, "\n")
}

func backtestingSummary(symbols []string, outcomes map[string]*models.ToolOutcome) string {
	lines := []string{"📈 BACKTESTING RESULTS"}
	for _, symbol := range symbols {
		bt := backtestPayload(outcomes, "backtest_"+symbol)
		if bt == nil || bt.Metrics == nil {
			continue
		}
		m := bt.Metrics
		lines = append(lines, "",
			fmt.Sprintf("📊 %s Strategy Performance:", symbol),
			fmt.Sprintf("   • Total Return: %.2f%%", m.TotalReturn),
			fmt.Sprintf("   • Sharpe Ratio: %.3f", m.SharpeRatio),
			fmt.Sprintf("   • Max Drawdown: %.2f%%", m.MaxDrawdown),
			fmt.Sprintf("   • Win Rate: %.2f%%", m.WinRate))
	}
	return strings.Join(lines, "\n")
}

// artifactLines lists chart and report files produced anywhere in the
// plan. Only the first few charts are named so comparison plans do not
// flood the response.
func artifactLines(outcomes map[string]*models.ToolOutcome, order []string) []string {
	var charts, reports []string
	for _, id := range order {
		outcome := outcomes[id]
		if outcome == nil || !outcome.Success {
			continue
		}
		switch payload := outcome.Data.(type) {
		case *models.ChartPayload:
			charts = append(charts, payload.ChartPath)
		case *models.ReportPayload:
			reports = append(reports, payload.ReportPath)
		}
	}

	var lines []string
	if len(charts) > 0 {
		lines = append(lines, "", fmt.Sprintf("📊 Charts created: %d file(s)", len(charts)))
		for i, chart := range charts {
			if i == maxChartLines {
				break
			}
			lines = append(lines, "   • "+filepath.Base(chart))
		}
	}
	if len(reports) > 0 {
		lines = append(lines, "", fmt.Sprintf("📄 Reports created: %d file(s)", len(reports)))
		for _, report := range reports {
			lines = append(lines, "   • "+filepath.Base(report))
		}
	}
	return lines
}

func companyName(fetch *models.FetchPayload) string {
	if fetch.Profile != nil && fetch.Profile.Name != "" {
		return fetch.Profile.Name
	}
	if fetch.Quote != nil {
		return fetch.Quote.Name
	}
	return ""
}

func anySucceeded(outcomes map[string]*models.ToolOutcome) bool {
	for _, outcome := range outcomes {
		if outcome != nil && outcome.Success {
			return true
		}
	}
	return false
}

func succeeded(outcomes map[string]*models.ToolOutcome, id string) bool {
	outcome, ok := outcomes[id]
	return ok && outcome != nil && outcome.Success
}

func failedIDs(outcomes map[string]*models.ToolOutcome, order []string) []string {
	var out []string
	for _, id := range order {
		if outcome := outcomes[id]; outcome != nil && !outcome.Success {
			out = append(out, id)
		}
	}
	return out
}

func successData(outcomes map[string]*models.ToolOutcome, id string) any {
	if outcome, ok := outcomes[id]; ok && outcome != nil && outcome.Success {
		return outcome.Data
	}
	return nil
}

func fetchPayload(outcomes map[string]*models.ToolOutcome, id string) *models.FetchPayload {
	payload, _ := successData(outcomes, id).(*models.FetchPayload)
	return payload
}

func analysisPayload(outcomes map[string]*models.ToolOutcome, id string) *models.AnalysisPayload {
	payload, _ := successData(outcomes, id).(*models.AnalysisPayload)
	return payload
}

func backtestPayload(outcomes map[string]*models.ToolOutcome, id string) *models.BacktestPayload {
	payload, _ := successData(outcomes, id).(*models.BacktestPayload)
	return payload
}

func comparisonPayload(outcomes map[string]*models.ToolOutcome, id string) *models.ComparisonPayload {
	payload, _ := successData(outcomes, id).(*models.ComparisonPayload)
	return payload
}
