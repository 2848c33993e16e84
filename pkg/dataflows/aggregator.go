package dataflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkarlsen/stratagem/internal/models"
)

// Aggregator merges data from every configured provider into one payload.
// Series and quote providers are tried in order until one answers; profile
// and news failures are tolerated, a fetch only fails outright when no
// source produced anything.
type Aggregator struct {
	series   []SeriesProvider
	quotes   []QuoteProvider
	profiles []ProfileProvider
	news     []NewsProvider
}

// NewAggregator wires the provider chains from the config. Yahoo needs no
// credentials and always anchors the series and quote chains; key-gated
// providers join their chains only when configured.
func NewAggregator(cfg *Config) *Aggregator {
	yahoo := NewYahooClient(cfg)
	finnhub := NewFinnhubClient(cfg)
	scraper := NewNewsScraper(cfg)

	agg := &Aggregator{
		series:   []SeriesProvider{yahoo},
		quotes:   []QuoteProvider{yahoo},
		profiles: []ProfileProvider{},
		news:     []NewsProvider{},
	}

	if alpaca := NewAlpacaClient(cfg); alpaca.Configured() {
		agg.series = append(agg.series, alpaca)
	}
	if longport, err := NewLongportClient(cfg); err == nil {
		agg.series = append(agg.series, longport)
		agg.quotes = append(agg.quotes, longport)
		agg.profiles = append(agg.profiles, longport)
	}
	if alphaVantage := NewAlphaVantageClient(cfg); alphaVantage.Configured() {
		agg.series = append(agg.series, alphaVantage)
	}

	if finnhub.Configured() {
		agg.quotes = append(agg.quotes, finnhub)
		agg.profiles = append([]ProfileProvider{finnhub}, agg.profiles...)
		agg.news = append(agg.news, finnhub)
	}
	agg.profiles = append(agg.profiles, yahoo)
	agg.news = append(agg.news, scraper)

	return agg
}

// NewAggregatorFromProviders builds an aggregator over explicit chains.
func NewAggregatorFromProviders(series []SeriesProvider, quotes []QuoteProvider, profiles []ProfileProvider, news []NewsProvider) *Aggregator {
	return &Aggregator{
		series:   series,
		quotes:   quotes,
		profiles: profiles,
		news:     news,
	}
}

// Fetch aggregates market data for one symbol across all provider chains.
func (a *Aggregator) Fetch(ctx context.Context, symbol, period string, includeFundamentals, includeNews bool) (*models.FetchPayload, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	payload := &models.FetchPayload{
		Symbol: symbol,
		Period: period,
	}

	for _, provider := range a.series {
		series, err := provider.GetSeries(ctx, symbol, period)
		if err != nil {
			payload.SourceErrors = append(payload.SourceErrors,
				fmt.Sprintf("%s: %v", provider.Name(), err))
			continue
		}
		payload.Series = series
		break
	}

	for _, provider := range a.quotes {
		quote, err := provider.GetQuote(ctx, symbol)
		if err != nil {
			payload.SourceErrors = append(payload.SourceErrors,
				fmt.Sprintf("%s: %v", provider.Name(), err))
			continue
		}
		payload.Quote = quote
		break
	}

	if includeFundamentals {
		for _, provider := range a.profiles {
			profile, err := provider.GetProfile(ctx, symbol)
			if err != nil {
				continue
			}
			payload.Profile = profile
			break
		}
	}

	if includeNews {
		for _, provider := range a.news {
			news, err := provider.GetNews(ctx, symbol, 10)
			if err != nil {
				continue
			}
			payload.News = news
			break
		}
	}

	if payload.Series == nil && payload.Quote == nil {
		return nil, fmt.Errorf("failed to fetch data from all sources: %s",
			strings.Join(payload.SourceErrors, "; "))
	}

	return payload, nil
}
