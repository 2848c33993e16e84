package session

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/mkarlsen/stratagem/internal/models"
)

func TestRememberSymbolDedupAndRecency(t *testing.T) {
	m := NewMemory(0, 0)
	for _, s := range []string{"AAPL", "MSFT", "AAPL"} {
		m.RememberSymbol(s)
	}
	if got := m.RecentSymbols(5); !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("RecentSymbols = %v, want re-remembered AAPL first", got)
	}
	if got := m.RecentSymbols(1); !reflect.DeepEqual(got, []string{"AAPL"}) {
		t.Errorf("RecentSymbols(1) = %v", got)
	}
}

func TestRememberSymbolCapDropsOldest(t *testing.T) {
	m := NewMemory(3, 0)
	for _, s := range []string{"A", "B", "C", "D"} {
		m.RememberSymbol(s)
	}
	if got := m.RecentSymbols(10); !reflect.DeepEqual(got, []string{"D", "C", "B"}) {
		t.Errorf("RecentSymbols = %v, want oldest dropped", got)
	}
}

func TestRecentSymbolsEmpty(t *testing.T) {
	m := NewMemory(0, 0)
	if got := m.RecentSymbols(3); got != nil {
		t.Errorf("RecentSymbols on empty session = %v", got)
	}
	m.RememberSymbol("")
	if got := m.RecentSymbols(3); got != nil {
		t.Errorf("empty symbol must not be remembered, got %v", got)
	}
}

func TestStoreAndGetResult(t *testing.T) {
	m := NewMemory(0, 0)
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.StoreResult("AAPL", "technical_analyzer", "old", first)
	m.StoreResult("AAPL", "technical_analyzer", "new", first.Add(time.Minute))
	m.StoreResult("AAPL", "trading_signals", "other", first)

	payload, at, ok := m.GetResult("AAPL", "technical_analyzer")
	if !ok || payload != "new" || !at.Equal(first.Add(time.Minute)) {
		t.Errorf("GetResult = %v %v %v, want latest payload", payload, at, ok)
	}
	if _, _, ok := m.GetResult("MSFT", "technical_analyzer"); ok {
		t.Error("unknown symbol should miss")
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	m := NewMemory(0, 2)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, input := range []string{"first", "second", "third"} {
		m.AddHistory(HistoryEntry{At: base.Add(time.Duration(i) * time.Minute), Input: input})
	}
	got := m.History(0)
	if len(got) != 2 || got[0].Input != "second" || got[1].Input != "third" {
		t.Errorf("History = %+v, want capped chronological tail", got)
	}
	if last := m.History(1); len(last) != 1 || last[0].Input != "third" {
		t.Errorf("History(1) = %+v", last)
	}
}

func TestHistoryFillsZeroTimestamp(t *testing.T) {
	m := NewMemory(0, 0)
	m.AddHistory(HistoryEntry{Input: "hello"})
	if got := m.History(0); len(got) != 1 || got[0].At.IsZero() {
		t.Errorf("History = %+v, want timestamp filled", got)
	}
}

func TestContextAndPreferences(t *testing.T) {
	m := NewMemory(0, 0)
	m.SetContext("last_category", "backtesting")
	m.SetPreference("chart_style", "dark")

	if v, ok := m.GetContext("last_category"); !ok || v != "backtesting" {
		t.Errorf("GetContext = %v %v", v, ok)
	}
	if v, ok := m.GetPreference("chart_style"); !ok || v != "dark" {
		t.Errorf("GetPreference = %v %v", v, ok)
	}
	if _, ok := m.GetContext("missing"); ok {
		t.Error("missing context key should report absent")
	}
}

func TestSummaryCountsActivity(t *testing.T) {
	m := NewMemory(0, 0)
	m.RememberSymbol("AAPL")
	m.RememberSymbol("MSFT")
	m.StoreResult("AAPL", "technical_analyzer", "x", time.Now())
	m.AddHistory(HistoryEntry{Input: "analyze AAPL"})

	got := m.Summary()
	if got.Interactions != 1 || got.StoredResults != 1 {
		t.Errorf("Summary = %+v", got)
	}
	if !reflect.DeepEqual(got.Symbols, []string{"AAPL", "MSFT"}) {
		t.Errorf("Summary symbols = %v", got.Symbols)
	}
	if got.StartedAt.IsZero() {
		t.Error("StartedAt must be set")
	}
}

func TestClearResetsEverything(t *testing.T) {
	m := NewMemory(0, 0)
	m.RememberSymbol("AAPL")
	m.StoreResult("AAPL", "technical_analyzer", "x", time.Now())
	m.AddHistory(HistoryEntry{Input: "analyze AAPL"})
	m.SetContext("k", "v")
	m.Clear()

	got := m.Summary()
	if got.Interactions != 0 || got.StoredResults != 0 || len(got.Symbols) != 0 {
		t.Errorf("Summary after Clear = %+v", got)
	}
	if _, ok := m.GetContext("k"); ok {
		t.Error("context must be cleared")
	}
}

func TestExportJSONIsValidDespiteNaNPayloads(t *testing.T) {
	m := NewMemory(0, 0)
	m.StoreResult("AAPL", "technical_analyzer", &models.AnalysisPayload{
		Symbol:     "AAPL",
		Indicators: &models.IndicatorSet{SMA20: []float64{math.NaN(), 101.5}},
	}, time.Now())
	m.AddHistory(HistoryEntry{Input: "analyze AAPL", Response: "done", ToolsUsed: []string{"technical_analyzer"}})

	data, err := m.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("export is not valid JSON: %s", data)
	}
	var decoded struct {
		Summary Summary        `json:"summary"`
		History []HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if decoded.Summary.StoredResults != 1 || len(decoded.History) != 1 {
		t.Errorf("decoded export = %+v", decoded)
	}
}
