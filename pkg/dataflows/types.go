package dataflows

import (
	"context"

	"github.com/mkarlsen/stratagem/config"
	"github.com/mkarlsen/stratagem/internal/models"
)

// Config is an alias for the main application config
type Config = config.Config

// SeriesProvider is any source that can produce a daily OHLCV history.
// The aggregator walks a provider chain until one answers.
type SeriesProvider interface {
	Name() string
	GetSeries(ctx context.Context, symbol, period string) (*models.Series, error)
}

// QuoteProvider is any source that can produce a current quote.
type QuoteProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// ProfileProvider is any source that can produce a company profile.
type ProfileProvider interface {
	Name() string
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
}

// NewsProvider is any source that can produce recent headlines.
type NewsProvider interface {
	Name() string
	GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}
