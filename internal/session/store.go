package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkarlsen/stratagem/internal/models"
)

// Store persists interaction history and analysis digests across runs.
// It is an optional companion to Memory; sessions run fine without one.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens (or creates) the SQLite database at dbPath and runs
// migrations.
func OpenStore(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=3000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			user_input TEXT NOT NULL,
			response   TEXT,
			tools_used TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS analysis_results (
			symbol    TEXT NOT NULL,
			tool      TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			digest    TEXT,
			PRIMARY KEY (symbol, tool)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveInteraction(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var toolsJSON string
	if len(entry.ToolsUsed) > 0 {
		if data, err := json.Marshal(entry.ToolsUsed); err == nil {
			toolsJSON = string(data)
		}
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO interactions (timestamp, user_input, response, tools_used)
		VALUES (?,?,?,?)`,
		at.Unix(), entry.Input, entry.Response, toolsJSON,
	)
	return err
}

// RecentInteractions returns the last n interactions in chronological
// order; n <= 0 returns everything.
func (s *Store) RecentInteractions(n int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `SELECT timestamp, user_input, response, tools_used FROM interactions ORDER BY id DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var ts int64
		var input string
		var response, toolsJSON sql.NullString
		if err := rows.Scan(&ts, &input, &response, &toolsJSON); err != nil {
			return nil, err
		}
		entry := HistoryEntry{At: time.Unix(ts, 0), Input: input, Response: response.String}
		if toolsJSON.String != "" {
			_ = json.Unmarshal([]byte(toolsJSON.String), &entry.ToolsUsed)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// SaveResult upserts the latest digest per (symbol, tool).
func (s *Store) SaveResult(symbol, toolName string, payload any, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO analysis_results (symbol, tool, timestamp, digest)
		VALUES (?,?,?,?)
		ON CONFLICT(symbol, tool) DO UPDATE SET timestamp=excluded.timestamp, digest=excluded.digest`,
		symbol, toolName, at.Unix(), resultDigest(payload),
	)
	return err
}

// resultDigest reduces a payload to a NaN-free JSON document. Indicator
// and portfolio series carry NaN warm-up values that JSON cannot
// represent, so the store keeps a queryable digest rather than raw data.
func resultDigest(payload any) string {
	var doc any
	switch p := payload.(type) {
	case *models.FetchPayload:
		candles := 0
		if p.Series != nil {
			candles = p.Series.Len()
		}
		doc = map[string]any{"symbol": p.Symbol, "period": p.Period, "candles": candles}
	case *models.AnalysisPayload:
		doc = map[string]any{"symbol": p.Symbol, "indicators": indicatorNames(p.Indicators)}
	case *models.SignalPayload:
		doc = map[string]any{"symbol": p.Symbol, "overall_last": lastSignal(p.Signals)}
	case *models.BacktestPayload:
		doc = map[string]any{"symbol": p.Symbol, "metrics": p.Metrics}
	case *models.ComparisonPayload:
		doc = map[string]any{"best_strategy": p.BestStrategy, "ranked": len(p.Ranking)}
	default:
		if data, err := json.Marshal(payload); err == nil {
			return string(data)
		}
		doc = map[string]string{"type": fmt.Sprintf("%T", payload)}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func indicatorNames(set *models.IndicatorSet) []string {
	if set == nil {
		return nil
	}
	var names []string
	if set.SMA20 != nil {
		names = append(names, "sma_20")
	}
	if set.SMA50 != nil {
		names = append(names, "sma_50")
	}
	if set.EMA12 != nil {
		names = append(names, "ema_12")
	}
	if set.EMA26 != nil {
		names = append(names, "ema_26")
	}
	if set.RSI != nil {
		names = append(names, "rsi")
	}
	if set.MACD != nil {
		names = append(names, "macd")
	}
	if set.Bollinger != nil {
		names = append(names, "bollinger_bands")
	}
	if set.VolumeSMA != nil {
		names = append(names, "volume_sma")
	}
	return names
}

func lastSignal(set *models.SignalSet) int {
	if set == nil || len(set.Overall) == 0 {
		return 0
	}
	return set.Overall[len(set.Overall)-1]
}
