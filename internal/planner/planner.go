// Package planner expands a classified query into an ordered task list,
// one fixed template per query category, with dependencies wired by
// task ID.
package planner

import (
	"fmt"

	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/query"
)

// Tool names the templates bind to; the registry must carry these keys.
const (
	ToolAggregator   = "stock_aggregator"
	ToolYahoo        = "yahoo_finance"
	ToolTechnical    = "technical_analyzer"
	ToolSignals      = "trading_signals"
	ToolBacktester   = "simple_backtester"
	ToolComparison   = "strategy_comparison"
	ToolChart        = "chart_generator"
	ToolReport       = "report_generator"
	ToolRiskAnalyzer = "risk_analyzer"
)

// SymbolRecall supplies recently analyzed symbols for queries that name
// none; session memory implements it.
type SymbolRecall interface {
	RecentSymbols(n int) []string
}

type Planner struct {
	memory SymbolRecall
}

func New(memory SymbolRecall) *Planner {
	return &Planner{memory: memory}
}

// Plan builds the task list for one classification. An empty list means
// there is nothing to execute and the caller reports that instead of
// running the executor.
func (p *Planner) Plan(c query.Classification) []models.Task {
	switch c.Category {
	case query.StockAnalysis:
		return p.stockAnalysisPlan(c.Symbols)
	case query.Comparison:
		return p.comparisonPlan(c.Symbols)
	case query.TechnicalAnalysis:
		return p.technicalPlan(p.symbolsOrRecent(c.Symbols))
	case query.Backtesting:
		return p.backtestPlan(p.symbolsOrRecent(c.Symbols))
	case query.ChartRequest:
		return p.chartPlan(p.symbolsOrRecent(c.Symbols))
	case query.Reporting:
		return p.reportingPlan()
	default:
		return nil
	}
}

// symbolsOrRecent falls back to the single most recently analyzed
// symbol when the query itself named none.
func (p *Planner) symbolsOrRecent(symbols []string) []string {
	if len(symbols) > 0 {
		return symbols
	}
	if p.memory == nil {
		return nil
	}
	return p.memory.RecentSymbols(1)
}

func (p *Planner) stockAnalysisPlan(symbols []string) []models.Task {
	var tasks []models.Task
	for _, symbol := range symbols {
		tasks = append(tasks,
			models.Task{
				ID:       fmt.Sprintf("data_%s", symbol),
				Kind:     models.KindFetch,
				ToolName: ToolAggregator,
				Params: map[string]any{
					"symbol":               symbol,
					"include_fundamentals": true,
					"include_news":         true,
				},
			},
			models.Task{
				ID:        fmt.Sprintf("technical_%s", symbol),
				Kind:      models.KindAnalyze,
				ToolName:  ToolTechnical,
				Params:    map[string]any{"symbol": symbol},
				DependsOn: []string{fmt.Sprintf("data_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("signals_%s", symbol),
				Kind:      models.KindAnalyze,
				ToolName:  ToolSignals,
				Params:    map[string]any{"symbol": symbol},
				DependsOn: []string{fmt.Sprintf("technical_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("chart_%s", symbol),
				Kind:      models.KindVisualize,
				ToolName:  ToolChart,
				Params:    map[string]any{"chart_type": "technical_chart", "symbol": symbol},
				DependsOn: []string{fmt.Sprintf("technical_%s", symbol)},
			},
		)
	}
	return tasks
}

func (p *Planner) comparisonPlan(symbols []string) []models.Task {
	var tasks []models.Task
	for _, symbol := range symbols {
		tasks = append(tasks, p.stockAnalysisPlan([]string{symbol})...)
	}

	signalDeps := make([]string, len(symbols))
	for i, symbol := range symbols {
		signalDeps[i] = fmt.Sprintf("signals_%s", symbol)
	}
	tasks = append(tasks,
		models.Task{
			ID:        "comparison_analysis",
			Kind:      models.KindCompare,
			ToolName:  ToolComparison,
			Params:    map[string]any{"symbols": symbols},
			DependsOn: signalDeps,
		},
		models.Task{
			ID:        "comparison_chart",
			Kind:      models.KindVisualize,
			ToolName:  ToolChart,
			Params:    map[string]any{"chart_type": "comparison_chart", "symbols": symbols},
			DependsOn: []string{"comparison_analysis"},
		},
	)
	return tasks
}

func (p *Planner) technicalPlan(symbols []string) []models.Task {
	var tasks []models.Task
	for _, symbol := range symbols {
		tasks = append(tasks,
			models.Task{
				ID:       fmt.Sprintf("data_%s", symbol),
				Kind:     models.KindFetch,
				ToolName: ToolYahoo,
				Params:   map[string]any{"symbol": symbol, "period": "6mo"},
			},
			models.Task{
				ID:       fmt.Sprintf("technical_%s", symbol),
				Kind:     models.KindAnalyze,
				ToolName: ToolTechnical,
				Params: map[string]any{
					"symbol":     symbol,
					"indicators": []string{"sma_20", "sma_50", "rsi", "macd", "bollinger_bands"},
				},
				DependsOn: []string{fmt.Sprintf("data_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("technical_chart_%s", symbol),
				Kind:      models.KindVisualize,
				ToolName:  ToolChart,
				Params:    map[string]any{"chart_type": "technical_chart", "symbol": symbol},
				DependsOn: []string{fmt.Sprintf("technical_%s", symbol)},
			},
		)
	}
	return tasks
}

func (p *Planner) backtestPlan(symbols []string) []models.Task {
	var tasks []models.Task
	for _, symbol := range symbols {
		tasks = append(tasks,
			models.Task{
				ID:       fmt.Sprintf("data_%s", symbol),
				Kind:     models.KindFetch,
				ToolName: ToolYahoo,
				Params:   map[string]any{"symbol": symbol, "period": "2y"},
			},
			models.Task{
				ID:        fmt.Sprintf("technical_%s", symbol),
				Kind:      models.KindAnalyze,
				ToolName:  ToolTechnical,
				Params:    map[string]any{"symbol": symbol},
				DependsOn: []string{fmt.Sprintf("data_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("signals_%s", symbol),
				Kind:      models.KindAnalyze,
				ToolName:  ToolSignals,
				Params:    map[string]any{"symbol": symbol},
				DependsOn: []string{fmt.Sprintf("technical_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("backtest_%s", symbol),
				Kind:      models.KindAnalyze,
				ToolName:  ToolBacktester,
				Params:    map[string]any{"symbol": symbol, "initial_capital": 10000.0},
				DependsOn: []string{fmt.Sprintf("signals_%s", symbol)},
			},
			models.Task{
				ID:        fmt.Sprintf("performance_chart_%s", symbol),
				Kind:      models.KindVisualize,
				ToolName:  ToolChart,
				Params:    map[string]any{"chart_type": "performance_chart", "symbol": symbol},
				DependsOn: []string{fmt.Sprintf("backtest_%s", symbol)},
			},
		)
	}
	return tasks
}

func (p *Planner) chartPlan(symbols []string) []models.Task {
	var tasks []models.Task
	for _, symbol := range symbols {
		tasks = append(tasks,
			models.Task{
				ID:       fmt.Sprintf("data_%s", symbol),
				Kind:     models.KindFetch,
				ToolName: ToolYahoo,
				Params:   map[string]any{"symbol": symbol},
			},
			models.Task{
				ID:        fmt.Sprintf("price_chart_%s", symbol),
				Kind:      models.KindVisualize,
				ToolName:  ToolChart,
				Params:    map[string]any{"chart_type": "price_chart", "symbol": symbol},
				DependsOn: []string{fmt.Sprintf("data_%s", symbol)},
			},
		)
	}
	return tasks
}

func (p *Planner) reportingPlan() []models.Task {
	if p.memory == nil {
		return nil
	}
	recent := p.memory.RecentSymbols(3)
	if len(recent) == 0 {
		return nil
	}
	return []models.Task{{
		ID:       "report",
		Kind:     models.KindReport,
		ToolName: ToolReport,
		Params: map[string]any{
			"symbols":      recent,
			"report_title": "Investment Analysis Report",
		},
	}}
}
