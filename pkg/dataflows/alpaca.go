package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/mkarlsen/stratagem/internal/models"
)

// AlpacaClient fetches daily bars from the Alpaca market-data API.
// Credentials-gated; uses the free IEX feed.
type AlpacaClient struct {
	client *marketdata.Client
	cache  *SeriesCache
	retry  *RetryConfig
	keyID  string
}

// NewAlpacaClient creates a new Alpaca market-data client
func NewAlpacaClient(cfg *Config) *AlpacaClient {
	cacheDir := filepath.Join(cfg.CacheDir, "alpaca")
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour

	return &AlpacaClient{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.AlpacaKey,
			APISecret: cfg.AlpacaSecret,
		}),
		cache: NewSeriesCache(cacheDir, ttl, cfg.CacheEnabled),
		retry: DefaultRetryConfig(),
		keyID: cfg.AlpacaKey,
	}
}

func (ac *AlpacaClient) Name() string { return "alpaca" }

// Configured reports whether API credentials are available.
func (ac *AlpacaClient) Configured() bool { return ac.keyID != "" }

// GetSeries fetches the daily OHLCV history for a lookback period.
func (ac *AlpacaClient) GetSeries(ctx context.Context, symbol, period string) (*models.Series, error) {
	if ac.keyID == "" {
		return nil, fmt.Errorf("alpaca API credentials not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if cached, ok := ac.cache.GetSeries(symbol, period); ok {
		return cached, nil
	}

	start, end, err := PeriodRange(period, time.Now())
	if err != nil {
		return nil, err
	}

	var series *models.Series
	err = WithRetry(ctx, ac.retry, func() error {
		bars, err := ac.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      "iex",
		})
		if err != nil {
			return fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			return fmt.Errorf("no bars for %s (%s)", symbol, FormatDateRange(start, end))
		}

		candles := make([]models.Candle, 0, len(bars))
		for _, bar := range bars {
			candles = append(candles, models.Candle{
				Date:   bar.Timestamp.UTC(),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: int64(bar.Volume),
			})
		}

		series = &models.Series{Symbol: symbol, Period: period, Candles: candles}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ac.cache.PutSeries(series)

	return series, nil
}
