package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// clearEnv blanks every variable loadFromEnv reads so tests see pure
// defaults regardless of the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PROJECT_DIR", "CHARTS_DIR", "REPORTS_DIR", "DATA_DIR", "DATA_CACHE_DIR",
		"DEFAULT_PERIOD", "INITIAL_CAPITAL", "COMMISSION_RATE", "WATCH_SYMBOLS",
		"MAX_HISTORY", "MAX_SYMBOLS", "CACHE_ENABLED", "CACHE_TTL_HOURS",
		"SESSION_DB_PATH", "EXECUTOR_FAIL_FAST", "STRATAGEM_DEBUG",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_DIR",
		"ALPHA_VANTAGE_API_KEY", "FINNHUB_API_KEY",
		"ALPACA_API_KEY", "ALPACA_API_SECRET",
		"LONGPORT_APP_KEY", "LONGPORT_APP_SECRET", "LONGPORT_ACCESS_TOKEN",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestDefaultConfigValues(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()

	if cfg.DefaultPeriod != "1y" {
		t.Errorf("DefaultPeriod = %q, want %q", cfg.DefaultPeriod, "1y")
	}
	wantIndicators := []string{"sma_20", "sma_50", "rsi", "macd", "bollinger_bands"}
	if !reflect.DeepEqual(cfg.DefaultIndicators, wantIndicators) {
		t.Errorf("DefaultIndicators = %v, want %v", cfg.DefaultIndicators, wantIndicators)
	}
	if cfg.InitialCapital != 10000 {
		t.Errorf("InitialCapital = %f, want %f", cfg.InitialCapital, 10000.0)
	}
	if cfg.CommissionRate != 0.001 {
		t.Errorf("CommissionRate = %f, want %f", cfg.CommissionRate, 0.001)
	}
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want %d", cfg.MaxHistory, 100)
	}
	if cfg.MaxSymbols != 50 {
		t.Errorf("MaxSymbols = %d, want %d", cfg.MaxSymbols, 50)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false, want true")
	}
	if cfg.CacheTTLHours != 24 {
		t.Errorf("CacheTTLHours = %d, want %d", cfg.CacheTTLHours, 24)
	}
	if cfg.ExecutorFailFast {
		t.Error("ExecutorFailFast = true, want false")
	}
	if filepath.Base(cfg.ChartsDir) != "charts" {
		t.Errorf("ChartsDir = %q, want a charts directory", cfg.ChartsDir)
	}
	if filepath.Base(cfg.ReportsDir) != "reports" {
		t.Errorf("ReportsDir = %q, want a reports directory", cfg.ReportsDir)
	}
	if filepath.Base(cfg.SessionDBPath) != "session.db" {
		t.Errorf("SessionDBPath = %q, want a session.db path", cfg.SessionDBPath)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" || cfg.LogOutput != "stdout" {
		t.Errorf("log defaults = %q/%q/%q, want info/text/stdout",
			cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults returned error: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_PERIOD", "6mo")
	t.Setenv("INITIAL_CAPITAL", "25000")
	t.Setenv("COMMISSION_RATE", "0.002")
	t.Setenv("EXECUTOR_FAIL_FAST", "true")
	t.Setenv("STRATAGEM_DEBUG", "1")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "demo")
	t.Setenv("MAX_SYMBOLS", "10")

	cfg := DefaultConfig()

	if cfg.DefaultPeriod != "6mo" {
		t.Errorf("DefaultPeriod = %q, want %q", cfg.DefaultPeriod, "6mo")
	}
	if cfg.InitialCapital != 25000 {
		t.Errorf("InitialCapital = %f, want %f", cfg.InitialCapital, 25000.0)
	}
	if cfg.CommissionRate != 0.002 {
		t.Errorf("CommissionRate = %f, want %f", cfg.CommissionRate, 0.002)
	}
	if !cfg.ExecutorFailFast {
		t.Error("ExecutorFailFast = false, want true")
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.AlphaVantageKey != "demo" {
		t.Errorf("AlphaVantageKey = %q, want %q", cfg.AlphaVantageKey, "demo")
	}
	if cfg.MaxSymbols != 10 {
		t.Errorf("MaxSymbols = %d, want %d", cfg.MaxSymbols, 10)
	}
}

func TestWatchSymbolsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WATCH_SYMBOLS", " aapl, msft ,NVDA,")

	cfg := DefaultConfig()

	want := []string{"AAPL", "MSFT", "NVDA"}
	if !reflect.DeepEqual(cfg.WatchSymbols, want) {
		t.Errorf("WatchSymbols = %v, want %v", cfg.WatchSymbols, want)
	}
}

func TestEnvOverridesIgnoreMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("INITIAL_CAPITAL", "lots")
	t.Setenv("MAX_HISTORY", "-5")
	t.Setenv("CACHE_ENABLED", "maybe")

	cfg := DefaultConfig()

	if cfg.InitialCapital != 10000 {
		t.Errorf("InitialCapital = %f, want default %f", cfg.InitialCapital, 10000.0)
	}
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want default %d", cfg.MaxHistory, 100)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false, want default true")
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
default_period: "2y"
initial_capital: 50000
commission_rate: 0.0
charts_dir: "/tmp/stratagem/charts"
`)
	path := filepath.Join(t.TempDir(), "stratagem.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}

	if cfg.DefaultPeriod != "2y" {
		t.Errorf("DefaultPeriod = %q, want %q", cfg.DefaultPeriod, "2y")
	}
	if cfg.InitialCapital != 50000 {
		t.Errorf("InitialCapital = %f, want %f", cfg.InitialCapital, 50000.0)
	}
	// An explicit zero in the file beats the default.
	if cfg.CommissionRate != 0 {
		t.Errorf("CommissionRate = %f, want 0", cfg.CommissionRate)
	}
	if cfg.ChartsDir != "/tmp/stratagem/charts" {
		t.Errorf("ChartsDir = %q, want %q", cfg.ChartsDir, "/tmp/stratagem/charts")
	}
	// Keys absent from the file keep their defaults.
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d, want default %d", cfg.MaxHistory, 100)
	}
}

func TestLoadFileMissingFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() on missing file returned error: %v", err)
	}
	if cfg.DefaultPeriod != "1y" {
		t.Errorf("DefaultPeriod = %q, want default %q", cfg.DefaultPeriod, "1y")
	}
}

func TestLoadFileEnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_PERIOD", "3mo")

	yamlContent := []byte("default_period: \"2y\"\n")
	path := filepath.Join(t.TempDir(), "stratagem.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if cfg.DefaultPeriod != "3mo" {
		t.Errorf("DefaultPeriod = %q, want env override %q", cfg.DefaultPeriod, "3mo")
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.DefaultPeriod = "6mo"
	cfg.InitialCapital = 75000
	cfg.WatchSymbols = []string{"AAPL", "TSLA"}

	path := filepath.Join(t.TempDir(), "stratagem.yaml")
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile() returned error: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if loaded.DefaultPeriod != "6mo" {
		t.Errorf("DefaultPeriod = %q, want %q", loaded.DefaultPeriod, "6mo")
	}
	if loaded.InitialCapital != 75000 {
		t.Errorf("InitialCapital = %f, want %f", loaded.InitialCapital, 75000.0)
	}
	if !reflect.DeepEqual(loaded.WatchSymbols, cfg.WatchSymbols) {
		t.Errorf("WatchSymbols = %v, want %v", loaded.WatchSymbols, cfg.WatchSymbols)
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("{{{ not yaml"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile() on malformed YAML returned nil error")
	}
}

func TestValidateCatchesBadNumbers(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"negative commission", func(c *Config) { c.CommissionRate = -0.001 }},
		{"zero history", func(c *Config) { c.MaxHistory = 0 }},
		{"zero symbols", func(c *Config) { c.MaxSymbols = 0 }},
		{"empty period", func(c *Config) { c.DefaultPeriod = "" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() returned nil error", tc.name)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	clearEnv(t)

	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.ChartsDir = filepath.Join(root, "charts")
	cfg.ReportsDir = filepath.Join(root, "reports")
	cfg.DataDir = filepath.Join(root, "data")
	cfg.CacheDir = filepath.Join(root, "data", "cache")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() returned error: %v", err)
	}
	for _, dir := range []string{cfg.ChartsDir, cfg.ReportsDir, cfg.DataDir, cfg.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("stat %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s exists but is not a directory", dir)
		}
	}
}
