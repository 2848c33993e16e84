package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mkarlsen/stratagem/internal/models"
)

// AlphaVantageClient fetches daily histories from the Alpha Vantage API.
// It is a fallback series provider; the free tier is heavily rate-limited.
type AlphaVantageClient struct {
	client *resty.Client
	cache  *SeriesCache
	retry  *RetryConfig
	apiKey string
}

// NewAlphaVantageClient creates a new Alpha Vantage client
func NewAlphaVantageClient(cfg *Config) *AlphaVantageClient {
	cacheDir := filepath.Join(cfg.CacheDir, "alphavantage")
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour

	client := resty.New()
	client.SetBaseURL("https://www.alphavantage.co")
	client.SetTimeout(30 * time.Second)

	return &AlphaVantageClient{
		client: client,
		cache:  NewSeriesCache(cacheDir, ttl, cfg.CacheEnabled),
		retry:  DefaultRetryConfig(),
		apiKey: cfg.AlphaVantageKey,
	}
}

func (av *AlphaVantageClient) Name() string { return "alphavantage" }

// Configured reports whether an API key is available.
func (av *AlphaVantageClient) Configured() bool { return av.apiKey != "" }

type alphaVantageDaily struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

func parseAlphaVantageSeries(body []byte, symbol, period string, start time.Time) (*models.Series, error) {
	var payload alphaVantageDaily
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse daily series response: %w", err)
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("alpha vantage error: %s", payload.ErrorMessage)
	}
	if payload.Note != "" {
		return nil, fmt.Errorf("alpha vantage rate limited: %s", payload.Note)
	}
	if payload.Information != "" {
		return nil, fmt.Errorf("alpha vantage: %s", payload.Information)
	}
	if len(payload.TimeSeries) == 0 {
		return nil, fmt.Errorf("no daily series for %s", symbol)
	}

	dates := make([]string, 0, len(payload.TimeSeries))
	for date := range payload.TimeSeries {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	candles := make([]models.Candle, 0, len(dates))
	for _, dateStr := range dates {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil || date.Before(start) {
			continue
		}
		bar := payload.TimeSeries[dateStr]
		open, _ := strconv.ParseFloat(bar["1. open"], 64)
		high, _ := strconv.ParseFloat(bar["2. high"], 64)
		low, _ := strconv.ParseFloat(bar["3. low"], 64)
		closePx, _ := strconv.ParseFloat(bar["4. close"], 64)
		volume, _ := strconv.ParseInt(bar["5. volume"], 10, 64)

		candles = append(candles, models.Candle{
			Date:   date.UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: volume,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no daily series for %s within period %s", symbol, period)
	}

	return &models.Series{Symbol: symbol, Period: period, Candles: candles}, nil
}

// GetSeries fetches the daily OHLCV history for a lookback period.
func (av *AlphaVantageClient) GetSeries(ctx context.Context, symbol, period string) (*models.Series, error) {
	if av.apiKey == "" {
		return nil, fmt.Errorf("alpha vantage API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if cached, ok := av.cache.GetSeries(symbol, period); ok {
		return cached, nil
	}

	start, _, err := PeriodRange(period, time.Now())
	if err != nil {
		return nil, err
	}

	// Compact payloads cover ~100 trading days; longer lookbacks need full.
	outputSize := "compact"
	if time.Since(start) > 120*24*time.Hour {
		outputSize = "full"
	}

	var series *models.Series
	err = WithRetry(ctx, av.retry, func() error {
		resp, err := av.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"function":   "TIME_SERIES_DAILY",
				"symbol":     symbol,
				"outputsize": outputSize,
				"apikey":     av.apiKey,
			}).
			Get("/query")
		if err != nil {
			return fmt.Errorf("failed to fetch daily series for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		series, err = parseAlphaVantageSeries(resp.Body(), symbol, period, start)
		return err
	})
	if err != nil {
		return nil, err
	}

	av.cache.PutSeries(series)

	return series, nil
}
