package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/mkarlsen/stratagem/internal/models"
)

// YahooClient fetches quotes and daily histories from Yahoo Finance.
// It needs no credentials, which makes it the default series provider.
type YahooClient struct {
	cache *SeriesCache
	retry *RetryConfig
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(cfg *Config) *YahooClient {
	cacheDir := filepath.Join(cfg.CacheDir, "yahoo")
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour

	return &YahooClient{
		cache: NewSeriesCache(cacheDir, ttl, cfg.CacheEnabled),
		retry: DefaultRetryConfig(),
	}
}

func (yc *YahooClient) Name() string { return "yahoo" }

// GetSeries fetches the daily OHLCV history for a lookback period.
func (yc *YahooClient) GetSeries(ctx context.Context, symbol, period string) (*models.Series, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if cached, ok := yc.cache.GetSeries(symbol, period); ok {
		return cached, nil
	}

	start, end, err := PeriodRange(period, time.Now())
	if err != nil {
		return nil, err
	}

	var series *models.Series
	err = WithRetry(ctx, yc.retry, func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		candles := make([]models.Candle, 0)
		for iter.Next() {
			bar := iter.Bar()

			open, _ := bar.Open.Float64()
			high, _ := bar.High.Float64()
			low, _ := bar.Low.Float64()
			closePx, _ := bar.Close.Float64()

			candles = append(candles, models.Candle{
				Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePx,
				Volume: int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		if len(candles) == 0 {
			return fmt.Errorf("no historical data for %s (%s)", symbol, FormatDateRange(start, end))
		}

		series = &models.Series{Symbol: symbol, Period: period, Candles: candles}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.PutSeries(series)

	return series, nil
}

// GetQuote gets current quote data for a symbol
func (yc *YahooClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.Quote
	if yc.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.Quote
	err := WithRetry(ctx, yc.retry, func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}
		if q == nil {
			return fmt.Errorf("no quote data for %s", symbol)
		}

		result = &models.Quote{
			Symbol:        symbol,
			Name:          q.ShortName,
			Price:         q.RegularMarketPrice,
			Change:        q.RegularMarketChange,
			ChangePercent: q.RegularMarketChangePercent,
			PreviousClose: q.RegularMarketPreviousClose,
			DayHigh:       q.RegularMarketDayHigh,
			DayLow:        q.RegularMarketDayLow,
			Volume:        int64(q.RegularMarketVolume),
			Exchange:      q.FullExchangeName,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "quote", symbol, result)

	return result, nil
}

// GetProfile gets basic company information from the quote endpoint.
func (yc *YahooClient) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.CompanyProfile
	if yc.cache.Get("yahoo", "profile", symbol, &cached) {
		return &cached, nil
	}

	var result *models.CompanyProfile
	err := WithRetry(ctx, yc.retry, func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get company info for %s: %w", symbol, err)
		}
		if q == nil {
			return fmt.Errorf("no company info for %s", symbol)
		}

		result = &models.CompanyProfile{
			Symbol:   symbol,
			Name:     q.ShortName,
			Exchange: q.FullExchangeName,
			Currency: q.CurrencyID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "profile", symbol, result)

	return result, nil
}
