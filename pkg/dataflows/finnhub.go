package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mkarlsen/stratagem/internal/models"
)

// FinnhubClient handles Finnhub API operations
type FinnhubClient struct {
	client *resty.Client
	cache  *SeriesCache
	retry  *RetryConfig
	apiKey string
}

// NewFinnhubClient creates a new Finnhub client
func NewFinnhubClient(cfg *Config) *FinnhubClient {
	cacheDir := filepath.Join(cfg.CacheDir, "finnhub")
	cache := NewSeriesCache(cacheDir, 6*time.Hour, cfg.CacheEnabled) // news goes stale fast

	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  cache,
		retry:  DefaultRetryConfig(),
		apiKey: cfg.FinnhubKey,
	}
}

func (fc *FinnhubClient) Name() string { return "finnhub" }

// Configured reports whether an API key is available.
func (fc *FinnhubClient) Configured() bool { return fc.apiKey != "" }

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

type finnhubProfile struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	IPO                  string  `json:"ipo"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Name                 string  `json:"name"`
	Ticker               string  `json:"ticker"`
	WebURL               string  `json:"weburl"`
	Industry             string  `json:"finnhubIndustry"`
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func parseFinnhubQuote(body []byte, symbol string) (*models.Quote, error) {
	var fq finnhubQuote
	if err := json.Unmarshal(body, &fq); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if fq.Current == 0 && fq.PreviousClose == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	return &models.Quote{
		Symbol:        symbol,
		Price:         fq.Current,
		Change:        fq.Change,
		ChangePercent: fq.ChangePercent,
		PreviousClose: fq.PreviousClose,
		DayHigh:       fq.High,
		DayLow:        fq.Low,
	}, nil
}

func parseFinnhubProfile(body []byte, symbol string) (*models.CompanyProfile, error) {
	var fp finnhubProfile
	if err := json.Unmarshal(body, &fp); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	if fp.Name == "" && fp.Ticker == "" {
		return nil, fmt.Errorf("no profile data for %s", symbol)
	}
	return &models.CompanyProfile{
		Symbol:    symbol,
		Name:      fp.Name,
		Industry:  fp.Industry,
		Exchange:  fp.Exchange,
		Country:   fp.Country,
		Currency:  fp.Currency,
		MarketCap: fp.MarketCapitalization,
		WebURL:    fp.WebURL,
		IPO:       fp.IPO,
	}, nil
}

func parseFinnhubNews(body []byte, limit int) ([]models.NewsItem, error) {
	var articles []finnhubNews
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	items := make([]models.NewsItem, 0, len(articles))
	for _, article := range articles {
		if article.Headline == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Headline: article.Headline,
			Summary:  article.Summary,
			Source:   article.Source,
			URL:      article.URL,
			Datetime: time.Unix(article.DateTime, 0).UTC(),
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// GetQuote gets the current quote for a symbol
func (fc *FinnhubClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.Quote
	if fc.cache.Get("finnhub", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.Quote
	err := WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"token":  fc.apiKey,
			}).
			Get("/quote")
		if err != nil {
			return fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		result, err = parseFinnhubQuote(resp.Body(), symbol)
		return err
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("finnhub", "quote", symbol, result)

	return result, nil
}

// GetProfile gets the company profile for a symbol
func (fc *FinnhubClient) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.CompanyProfile
	if fc.cache.Get("finnhub", "profile", symbol, &cached) {
		return &cached, nil
	}

	var result *models.CompanyProfile
	err := WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"token":  fc.apiKey,
			}).
			Get("/stock/profile2")
		if err != nil {
			return fmt.Errorf("failed to fetch profile for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		result, err = parseFinnhubProfile(resp.Body(), symbol)
		return err
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("finnhub", "profile", symbol, result)

	return result, nil
}

// GetNews gets recent company news headlines, newest first per the API.
func (fc *FinnhubClient) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	to := time.Now()
	from := to.AddDate(0, 0, -7)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"limit":  limit,
	}

	var cached []models.NewsItem
	if fc.cache.Get("finnhub", "company_news", cacheKey, &cached) {
		return cached, nil
	}

	var result []models.NewsItem
	err := WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
		}

		result, err = parseFinnhubNews(resp.Body(), limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("finnhub", "company_news", cacheKey, result)

	return result, nil
}
