package tools

import (
	"context"

	"github.com/mkarlsen/stratagem/internal/models"
)

// StockFetcher pulls a merged multi-source payload for one symbol.
// *dataflows.Aggregator is the production implementation.
type StockFetcher interface {
	Fetch(ctx context.Context, symbol, period string, includeFundamentals, includeNews bool) (*models.FetchPayload, error)
}

// SeriesSource fetches one symbol's daily history from a single
// provider.
type SeriesSource interface {
	Name() string
	GetSeries(ctx context.Context, symbol, period string) (*models.Series, error)
}

// AggregatorTool fetches price history, quote, company profile and news
// in one call, tolerating individual source failures.
type AggregatorTool struct {
	fetcher StockFetcher
	period  string
}

func NewAggregatorTool(fetcher StockFetcher, defaultPeriod string) *AggregatorTool {
	if defaultPeriod == "" {
		defaultPeriod = "1y"
	}
	return &AggregatorTool{fetcher: fetcher, period: defaultPeriod}
}

func (t *AggregatorTool) Name() string          { return "stock_aggregator" }
func (t *AggregatorTool) Kind() models.TaskKind { return models.KindFetch }

func (t *AggregatorTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"symbol":               {Type: "string", Required: true, Description: "Stock symbol"},
		"period":               {Type: "string", Default: t.period, Description: "History period, e.g. 6mo or 1y"},
		"include_fundamentals": {Type: "bool", Default: true, Description: "Include company profile data"},
		"include_news":         {Type: "bool", Default: true, Description: "Include recent news"},
	}
}

func (t *AggregatorTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	symbol, ok := StringParam(params, "symbol")
	if !ok {
		return models.Failf("symbol parameter is required")
	}
	period, ok := StringParam(params, "period")
	if !ok {
		period = t.period
	}
	fundamentals := true
	if v, ok := BoolParam(params, "include_fundamentals"); ok {
		fundamentals = v
	}
	news := true
	if v, ok := BoolParam(params, "include_news"); ok {
		news = v
	}

	payload, err := t.fetcher.Fetch(ctx, symbol, period, fundamentals, news)
	if err != nil {
		return models.Failf("%v", err)
	}
	return models.Succeed(payload).
		WithMeta("sources_used", payloadSections(payload)).
		WithMeta("errors", payload.SourceErrors)
}

// payloadSections lists the sections a fetch actually filled.
func payloadSections(p *models.FetchPayload) []string {
	var out []string
	if p.Series != nil {
		out = append(out, "series")
	}
	if p.Quote != nil {
		out = append(out, "quote")
	}
	if p.Profile != nil {
		out = append(out, "profile")
	}
	if len(p.News) > 0 {
		out = append(out, "news")
	}
	return out
}

// SeriesTool fetches daily price history from one provider, without the
// aggregator's fallback chain.
type SeriesTool struct {
	name   string
	source SeriesSource
	period string
}

// NewYahooTool wraps a series source under the yahoo_finance tool name.
func NewYahooTool(source SeriesSource, defaultPeriod string) *SeriesTool {
	return NewSeriesTool("yahoo_finance", source, defaultPeriod)
}

// NewSeriesTool exposes one provider as a registry tool under the given
// name. An empty default period falls back to one year.
func NewSeriesTool(name string, source SeriesSource, defaultPeriod string) *SeriesTool {
	if defaultPeriod == "" {
		defaultPeriod = "1y"
	}
	return &SeriesTool{name: name, source: source, period: defaultPeriod}
}

func (t *SeriesTool) Name() string          { return t.name }
func (t *SeriesTool) Kind() models.TaskKind { return models.KindFetch }

func (t *SeriesTool) Parameters() map[string]ParamSpec {
	return map[string]ParamSpec{
		"symbol": {Type: "string", Required: true, Description: "Stock symbol"},
		"period": {Type: "string", Default: t.period, Description: "History period, e.g. 6mo or 1y"},
	}
}

func (t *SeriesTool) Execute(ctx context.Context, params map[string]any) *models.ToolOutcome {
	symbol, ok := StringParam(params, "symbol")
	if !ok {
		return models.Failf("symbol parameter is required")
	}
	period, ok := StringParam(params, "period")
	if !ok {
		period = t.period
	}

	series, err := t.source.GetSeries(ctx, symbol, period)
	if err != nil {
		return models.Failf("%v", err)
	}
	payload := &models.FetchPayload{
		Symbol: series.Symbol,
		Period: series.Period,
		Series: series,
	}
	return models.Succeed(payload).
		WithMeta("source", t.source.Name()).
		WithMeta("period", period)
}
