package cli

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mkarlsen/stratagem/config"
	"github.com/mkarlsen/stratagem/internal/logging"
	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/planner"
	"github.com/mkarlsen/stratagem/internal/session"
)

func newTestApp() *App {
	memory := session.NewMemory(10, 10)
	return &App{
		log:     logging.New(logging.Config{Level: "error"}).Component("test"),
		memory:  memory,
		planner: planner.New(memory),
	}
}

func TestHandleCommandClearWipesMemory(t *testing.T) {
	app := newTestApp()
	app.memory.RememberSymbol("AAPL")

	response, handled := app.handleCommand("clear")
	if !handled {
		t.Fatal("clear should be handled as a command")
	}
	if !strings.Contains(response, "Session memory cleared") {
		t.Fatalf("unexpected clear response %q", response)
	}
	if got := app.memory.Summary().Symbols; got != 0 {
		t.Fatalf("symbols after clear = %d, want 0", got)
	}
}

func TestHandleCommandPassesQueriesThrough(t *testing.T) {
	app := newTestApp()
	for _, input := range []string{"analyze AAPL", "quit", "exit", "q"} {
		if _, handled := app.handleCommand(input); handled {
			t.Errorf("handleCommand(%q) intercepted input that belongs to the loop or pipeline", input)
		}
	}
}

func TestStatusResponse(t *testing.T) {
	app := newTestApp()
	app.memory.RememberSymbol("AAPL")
	app.memory.AddHistory(session.HistoryEntry{
		At:        time.Now(),
		Input:     "analyze AAPL",
		Response:  "done",
		ToolsUsed: []string{"stock_aggregator"},
	})

	got := app.statusResponse()
	for _, want := range []string{
		"SESSION STATUS",
		"Interactions: 1",
		"Symbols analyzed: 1",
		"Recent symbols: AAPL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}
}

func TestHistoryResponseEmpty(t *testing.T) {
	app := newTestApp()
	if got := app.historyResponse(); !strings.Contains(got, "No analysis history yet") {
		t.Fatalf("unexpected empty-history response %q", got)
	}
}

func TestHistoryResponseListsRecentEntries(t *testing.T) {
	app := newTestApp()
	app.memory.AddHistory(session.HistoryEntry{
		At:        time.Now(),
		Input:     "analyze AAPL",
		ToolsUsed: []string{"stock_aggregator", "technical_analyzer"},
	})
	app.memory.AddHistory(session.HistoryEntry{
		At:    time.Now(),
		Input: strings.Repeat("backtest a momentum strategy for GOOGL ", 3),
	})

	got := app.historyResponse()
	for _, want := range []string{
		"RECENT ANALYSIS HISTORY",
		"1. analyze AAPL",
		"Tools: stock_aggregator, technical_analyzer",
		"...",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("history missing %q:\n%s", want, got)
		}
	}
}

func TestProcessQueryWithoutPlanReturnsHint(t *testing.T) {
	app := newTestApp()

	got, err := app.ProcessQuery(context.Background(), "what is the meaning of life")
	if err != nil {
		t.Fatalf("ProcessQuery() error = %v", err)
	}
	if !strings.Contains(got, "not sure how to help") {
		t.Fatalf("unexpected response %q", got)
	}
	if interactions := app.memory.Summary().Interactions; interactions != 0 {
		t.Fatalf("unplanned query recorded %d interactions, want 0", interactions)
	}
}

func TestTruncateKeepsShortInput(t *testing.T) {
	if got := truncate("analyze AAPL", 50); got != "analyze AAPL" {
		t.Fatalf("truncate() = %q", got)
	}
	long := strings.Repeat("x", 60)
	if got := truncate(long, 50); got != strings.Repeat("x", 50)+"..." {
		t.Fatalf("truncate() = %q", got)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := normalizeSymbols([]string{"aapl,msft", "AAPL", " tsla "})
	want := []string{"AAPL", "MSFT", "TSLA"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeSymbols() = %v, want %v", got, want)
	}
}

func TestSplitSymbols(t *testing.T) {
	got := splitSymbols("aapl, msft tsla,,aapl")
	want := []string{"AAPL", "MSFT", "TSLA"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitSymbols() = %v, want %v", got, want)
	}
}

func TestToolNamesDedupes(t *testing.T) {
	plan := []models.Task{
		{ID: "data_AAPL", ToolName: "stock_aggregator"},
		{ID: "data_MSFT", ToolName: "stock_aggregator"},
		{ID: "technical_AAPL", ToolName: "technical_analyzer"},
	}
	got := toolNames(plan)
	want := []string{"stock_aggregator", "technical_analyzer"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("toolNames() = %v, want %v", got, want)
	}
	if ids := taskIDs(plan); !reflect.DeepEqual(ids, []string{"data_AAPL", "data_MSFT", "technical_AAPL"}) {
		t.Fatalf("taskIDs() = %v", ids)
	}
}

func TestRedactSecretsMasksOnlySetCredentials(t *testing.T) {
	cfg := &config.Config{
		DefaultPeriod:   "1y",
		AlphaVantageKey: "demo-key",
		AlpacaSecret:    "hunter2",
	}

	masked := redactSecrets(cfg, "(set)")
	if masked.AlphaVantageKey != "(set)" || masked.AlpacaSecret != "(set)" {
		t.Fatalf("set credentials not masked: %q %q", masked.AlphaVantageKey, masked.AlpacaSecret)
	}
	if masked.FinnhubKey != "" {
		t.Fatalf("empty credential replaced: %q", masked.FinnhubKey)
	}
	if masked.DefaultPeriod != "1y" {
		t.Fatalf("non-credential field changed: %q", masked.DefaultPeriod)
	}
	if cfg.AlphaVantageKey != "demo-key" {
		t.Fatal("redactSecrets mutated its input")
	}
}
