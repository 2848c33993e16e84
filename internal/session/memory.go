// Package session keeps per-session state: analyzed symbols, stored tool
// results, interaction history, and user context. Writes are serialized
// behind one mutex so callers that parallelize plan execution still get
// exactly one update per successful task.
package session

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	DefaultMaxSymbols = 50
	DefaultMaxHistory = 100
)

type HistoryEntry struct {
	At        time.Time `json:"timestamp"`
	Input     string    `json:"input"`
	Response  string    `json:"response"`
	ToolsUsed []string  `json:"tools_used,omitempty"`
}

// Summary is a point-in-time snapshot of session activity.
type Summary struct {
	StartedAt     time.Time `json:"started_at"`
	Interactions  int       `json:"interactions"`
	Symbols       []string  `json:"symbols_analyzed,omitempty"`
	StoredResults int       `json:"stored_results"`
}

type storedResult struct {
	payload any
	at      time.Time
}

type Memory struct {
	mu          sync.Mutex
	startedAt   time.Time
	symbols     []string
	results     map[string]storedResult
	history     []HistoryEntry
	context     map[string]any
	preferences map[string]any
	maxSymbols  int
	maxHistory  int
}

// NewMemory builds an empty session. Non-positive limits fall back to the
// package defaults.
func NewMemory(maxSymbols, maxHistory int) *Memory {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbols
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Memory{
		startedAt:   time.Now(),
		results:     map[string]storedResult{},
		context:     map[string]any{},
		preferences: map[string]any{},
		maxSymbols:  maxSymbols,
		maxHistory:  maxHistory,
	}
}

// RememberSymbol records a symbol as the most recently analyzed one.
// Re-remembering moves a symbol back to the front of recency; the oldest
// entry drops out once the cap is reached.
func (m *Memory) RememberSymbol(symbol string) {
	if symbol == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.symbols {
		if existing == symbol {
			m.symbols = append(m.symbols[:i], m.symbols[i+1:]...)
			break
		}
	}
	m.symbols = append(m.symbols, symbol)
	if len(m.symbols) > m.maxSymbols {
		m.symbols = m.symbols[len(m.symbols)-m.maxSymbols:]
	}
}

// RecentSymbols returns up to n symbols, most recently analyzed first.
func (m *Memory) RecentSymbols(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || len(m.symbols) == 0 {
		return nil
	}
	if n > len(m.symbols) {
		n = len(m.symbols)
	}
	out := make([]string, 0, n)
	for i := len(m.symbols) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.symbols[i])
	}
	return out
}

// StoreResult keeps the latest payload per (symbol, tool) pair.
func (m *Memory) StoreResult(symbol, toolName string, payload any, at time.Time) {
	if symbol == "" || toolName == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[symbol+":"+toolName] = storedResult{payload: payload, at: at}
}

func (m *Memory) GetResult(symbol, toolName string) (any, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[symbol+":"+toolName]
	if !ok {
		return nil, time.Time{}, false
	}
	return r.payload, r.at, true
}

// AddHistory appends one interaction. A zero timestamp is filled with the
// current time; the oldest entry drops out once the cap is reached.
func (m *Memory) AddHistory(entry HistoryEntry) {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, entry)
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}
}

// History returns the last n interactions in chronological order; n <= 0
// returns everything.
func (m *Memory) History(n int) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil
	}
	if n <= 0 || n > len(m.history) {
		n = len(m.history)
	}
	out := make([]HistoryEntry, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

func (m *Memory) SetContext(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.context[key] = value
}

func (m *Memory) GetContext(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.context[key]
	return value, ok
}

func (m *Memory) SetPreference(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[key] = value
}

func (m *Memory) GetPreference(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.preferences[key]
	return value, ok
}

func (m *Memory) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbols := make([]string, len(m.symbols))
	copy(symbols, m.symbols)
	return Summary{
		StartedAt:     m.startedAt,
		Interactions:  len(m.history),
		Symbols:       symbols,
		StoredResults: len(m.results),
	}
}

// Clear resets the session to empty and restarts the session clock.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startedAt = time.Now()
	m.symbols = nil
	m.results = map[string]storedResult{}
	m.history = nil
	m.context = map[string]any{}
	m.preferences = map[string]any{}
}

// ExportJSON serializes the session summary and history. Stored result
// payloads stay out of the export: indicator series carry NaN warm-up
// values that have no JSON encoding.
func (m *Memory) ExportJSON() ([]byte, error) {
	summary := m.Summary()
	history := m.History(0)
	return json.MarshalIndent(struct {
		Summary Summary        `json:"summary"`
		History []HistoryEntry `json:"history,omitempty"`
	}{Summary: summary, History: history}, "", "  ")
}
