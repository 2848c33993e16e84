package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkarlsen/stratagem/config"
	"github.com/mkarlsen/stratagem/internal/display"
	"github.com/mkarlsen/stratagem/internal/executor"
	"github.com/mkarlsen/stratagem/internal/logging"
	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/planner"
	"github.com/mkarlsen/stratagem/internal/query"
	"github.com/mkarlsen/stratagem/internal/session"
	"github.com/mkarlsen/stratagem/internal/tools"
	"github.com/mkarlsen/stratagem/pkg/dataflows"
)

// App owns one assistant session: the tool registry, the planner, the
// executor and the session memory behind every query.
type App struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *tools.Registry
	memory   *session.Memory
	store    *session.Store
	planner  *planner.Planner
	executor *executor.Executor
}

// NewApp assembles the assistant from configuration. A failing session
// store is downgraded to a warning so the assistant still runs without
// persistence.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare workspace directories: %w", err)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log := logging.Init(logging.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    cfg.LogOutput,
		Directory: cfg.LogDir,
	})

	memory := session.NewMemory(cfg.MaxSymbols, cfg.MaxHistory)
	app := &App{
		cfg:      cfg,
		log:      log.Component("cli"),
		registry: tools.NewRegistry(),
		memory:   memory,
		planner:  planner.New(memory),
	}
	app.registerTools()
	app.executor = executor.New(app.registry, memory, executor.WithFailFast(cfg.ExecutorFailFast))

	if cfg.SessionDBPath != "" {
		store, err := session.OpenStore(cfg.SessionDBPath)
		if err != nil {
			app.log.WithError(err).Warn("session store unavailable, running without persistence")
		} else {
			app.store = store
		}
	}

	app.log.WithField("tools", app.registry.Len()).Info("assistant initialized")
	return app, nil
}

// registerTools mirrors the provider chain: yahoo always works, keyed
// providers join only when credentials are present.
func (a *App) registerTools() {
	cfg := a.cfg
	reg := a.registry

	reg.MustRegister(tools.NewYahooTool(dataflows.NewYahooClient(cfg), cfg.DefaultPeriod))
	reg.MustRegister(tools.NewAggregatorTool(dataflows.NewAggregator(cfg), cfg.DefaultPeriod))
	if av := dataflows.NewAlphaVantageClient(cfg); av.Configured() {
		reg.MustRegister(tools.NewSeriesTool("alpha_vantage", av, cfg.DefaultPeriod))
	}
	if ac := dataflows.NewAlpacaClient(cfg); ac.Configured() {
		reg.MustRegister(tools.NewSeriesTool("alpaca_market_data", ac, cfg.DefaultPeriod))
	}
	if lp, err := dataflows.NewLongportClient(cfg); err == nil {
		reg.MustRegister(tools.NewSeriesTool("longport", lp, cfg.DefaultPeriod))
	} else {
		a.log.WithError(err).Debug("longport provider not registered")
	}

	reg.MustRegister(tools.NewTechnicalAnalyzerTool(cfg.DefaultIndicators))
	reg.MustRegister(tools.NewTradingSignalsTool())
	reg.MustRegister(tools.NewSimpleBacktesterTool(cfg.InitialCapital, cfg.CommissionRate))
	reg.MustRegister(tools.NewStrategyComparisonTool(cfg.InitialCapital, cfg.CommissionRate))
	reg.MustRegister(tools.NewRiskAnalyzerTool())
	reg.MustRegister(tools.NewChartGeneratorTool(cfg.ChartsDir))
	reg.MustRegister(tools.NewReportGeneratorTool(cfg.ReportsDir, a.memory))
}

// ProcessQuery runs one natural-language request through the pipeline:
// classify, plan, execute, render. The returned string is the response
// shown to the user and recorded in session history.
func (a *App) ProcessQuery(ctx context.Context, input string) (string, error) {
	fmt.Println("\n🧠 Understanding your query...")
	c := query.Classify(input)
	a.log.LogQuery(c.Query, string(c.Category), c.Symbols)

	fmt.Printf("   Query type: %s\n", c.Category)
	if len(c.Symbols) > 0 {
		fmt.Printf("   Symbols found: %s\n", strings.Join(c.Symbols, ", "))
	}

	plan := a.planner.Plan(c)
	if len(plan) == 0 {
		return "I'm not sure how to help with that. Try 'help' for available commands.", nil
	}
	a.log.LogPlan(string(c.Category), taskIDs(plan))

	fmt.Printf("\n📋 Planned %d task(s):\n", len(plan))
	for i, task := range plan {
		fmt.Printf("   %d. %s (%s)\n", i+1, task.ToolName, task.Kind)
	}

	fmt.Println("\n⚙️ Executing analysis...")
	result, err := a.executor.Run(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("execute plan: %w", err)
	}
	toolsByID := make(map[string]string, len(plan))
	for _, task := range plan {
		toolsByID[task.ID] = task.ToolName
	}
	for _, id := range result.Order {
		a.log.LogOutcome(id, toolsByID[id], result.Outcomes[id])
	}

	response := display.Response(c, result.Outcomes, result.Order)
	entry := session.HistoryEntry{
		At:        time.Now(),
		Input:     input,
		Response:  response,
		ToolsUsed: toolNames(plan),
	}
	a.memory.AddHistory(entry)
	if a.store != nil {
		if err := a.store.SaveInteraction(entry); err != nil {
			a.log.WithError(err).Warn("persist interaction")
		}
	}
	return response, nil
}

// RunSingleQuery answers one query and returns, for --query one-shots.
func (a *App) RunSingleQuery(ctx context.Context, text string) error {
	fmt.Println("🚀 AI Investment Research Assistant")
	fmt.Println(strings.Repeat("=", 40))
	response, err := a.ProcessQuery(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", response)
	return nil
}

// Close releases the session store.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("close session store")
		}
	}
}

func taskIDs(plan []models.Task) []string {
	out := make([]string, len(plan))
	for i, task := range plan {
		out[i] = task.ID
	}
	return out
}

func toolNames(plan []models.Task) []string {
	seen := make(map[string]bool, len(plan))
	out := make([]string, 0, len(plan))
	for _, task := range plan {
		if seen[task.ToolName] {
			continue
		}
		seen[task.ToolName] = true
		out = append(out, task.ToolName)
	}
	return out
}
