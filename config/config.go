package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir string `json:"project_dir" yaml:"project_dir"`
	ChartsDir  string `json:"charts_dir" yaml:"charts_dir"`
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	CacheDir   string `json:"cache_dir" yaml:"cache_dir"`

	DefaultPeriod     string   `json:"default_period" yaml:"default_period"`
	DefaultIndicators []string `json:"default_indicators" yaml:"default_indicators"`
	InitialCapital    float64  `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate    float64  `json:"commission_rate" yaml:"commission_rate"`
	WatchSymbols      []string `json:"watch_symbols" yaml:"watch_symbols"`

	MaxHistory int `json:"max_history" yaml:"max_history"`
	MaxSymbols int `json:"max_symbols" yaml:"max_symbols"`

	CacheEnabled  bool `json:"cache_enabled" yaml:"cache_enabled"`
	CacheTTLHours int  `json:"cache_ttl_hours" yaml:"cache_ttl_hours"`

	SessionDBPath    string `json:"session_db_path" yaml:"session_db_path"`
	ExecutorFailFast bool   `json:"executor_fail_fast" yaml:"executor_fail_fast"`
	Debug            bool   `json:"debug" yaml:"debug"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
	LogOutput string `json:"log_output" yaml:"log_output"`
	LogDir    string `json:"log_dir" yaml:"log_dir"`

	// Market data API keys
	AlphaVantageKey string `json:"alpha_vantage_key" yaml:"alpha_vantage_key"`
	FinnhubKey      string `json:"finnhub_key" yaml:"finnhub_key"`
	AlpacaKey       string `json:"alpaca_key" yaml:"alpaca_key"`
	AlpacaSecret    string `json:"alpaca_secret" yaml:"alpaca_secret"`

	// Longport API Configuration
	LongportAppKey      string `json:"longport_app_key" yaml:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret" yaml:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token" yaml:"longport_access_token"`
}

func baseConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir: currentDir,
		ChartsDir:  filepath.Join(currentDir, "charts"),
		ReportsDir: filepath.Join(currentDir, "reports"),
		DataDir:    filepath.Join(currentDir, "data"),
		CacheDir:   filepath.Join(currentDir, "data", "cache"),

		DefaultPeriod:     "1y",
		DefaultIndicators: []string{"sma_20", "sma_50", "rsi", "macd", "bollinger_bands"},
		InitialCapital:    10000,
		CommissionRate:    0.001,

		MaxHistory: 100,
		MaxSymbols: 50,

		CacheEnabled:  true,
		CacheTTLHours: 24,

		SessionDBPath: filepath.Join(currentDir, "data", "session.db"),

		LogLevel:  "info",
		LogFormat: "text",
		LogOutput: "stdout",
		LogDir:    filepath.Join(currentDir, "logs"),
	}
}

func DefaultConfig() *Config {
	cfg := baseConfig()

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("CHARTS_DIR"); val != "" {
		c.ChartsDir = val
	}
	if val := os.Getenv("REPORTS_DIR"); val != "" {
		c.ReportsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.CacheDir = val
	}

	if val := os.Getenv("DEFAULT_PERIOD"); val != "" {
		c.DefaultPeriod = val
	}
	if val := os.Getenv("INITIAL_CAPITAL"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil && v > 0 {
			c.InitialCapital = v
		}
	}
	if val := os.Getenv("COMMISSION_RATE"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil && v >= 0 {
			c.CommissionRate = v
		}
	}
	if val := os.Getenv("WATCH_SYMBOLS"); val != "" {
		var symbols []string
		for _, part := range strings.Split(val, ",") {
			if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
				symbols = append(symbols, sym)
			}
		}
		if len(symbols) > 0 {
			c.WatchSymbols = symbols
		}
	}

	if val := os.Getenv("MAX_HISTORY"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.MaxHistory = v
		}
	}
	if val := os.Getenv("MAX_SYMBOLS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.MaxSymbols = v
		}
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("CACHE_TTL_HOURS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			c.CacheTTLHours = v
		}
	}

	if val := os.Getenv("SESSION_DB_PATH"); val != "" {
		c.SessionDBPath = val
	}
	if val := os.Getenv("EXECUTOR_FAIL_FAST"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.ExecutorFailFast = enabled
		}
	}
	if val := os.Getenv("STRATAGEM_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}
	if val := os.Getenv("LOG_OUTPUT"); val != "" {
		c.LogOutput = val
	}
	if val := os.Getenv("LOG_DIR"); val != "" {
		c.LogDir = val
	}

	if val := os.Getenv("ALPHA_VANTAGE_API_KEY"); val != "" {
		c.AlphaVantageKey = val
	}
	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubKey = val
	}
	if val := os.Getenv("ALPACA_API_KEY"); val != "" {
		c.AlpacaKey = val
	}
	if val := os.Getenv("ALPACA_API_SECRET"); val != "" {
		c.AlpacaSecret = val
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ChartsDir, c.ReportsDir, c.DataDir, c.CacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
