package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/mkarlsen/stratagem/internal/models"
)

// LongportClient fetches daily candlesticks via the Longport OpenAPI.
// Credentials-gated; mainly useful for HK/CN listings Yahoo covers poorly.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

// NewLongportClient creates a new Longport client
func NewLongportClient(cfg *Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{
		quoteCtx: quoteContext,
	}, nil
}

func (lpc *LongportClient) Name() string { return "longport" }

// GetSeries fetches daily candlesticks for a lookback period.
func (lpc *LongportClient) GetSeries(ctx context.Context, symbol, period string) (*models.Series, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	count, err := PeriodDays(period, time.Now())
	if err != nil {
		return nil, err
	}
	if count > 1000 {
		count = 1000 // API ceiling per request
	}

	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get candlesticks for %s: %w", symbol, err)
	}
	if len(sticks) == 0 {
		return nil, fmt.Errorf("no candlesticks for %s", symbol)
	}

	candles := make([]models.Candle, 0, len(sticks))
	for _, stick := range sticks {
		candles = append(candles, models.Candle{
			Date:   time.Unix(stick.Timestamp, 0).UTC(),
			Open:   decimalValue(stick.Open),
			High:   decimalValue(stick.High),
			Low:    decimalValue(stick.Low),
			Close:  decimalValue(stick.Close),
			Volume: stick.Volume,
		})
	}

	return &models.Series{Symbol: symbol, Period: period, Candles: candles}, nil
}

// GetQuote fetches the realtime quote. Longport reports raw prices only,
// so the day change is derived from the previous close in decimal before
// converting to float.
func (lpc *LongportClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	quotes, err := lpc.quoteCtx.Quote(ctx, []string{symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if len(quotes) == 0 || quotes[0] == nil {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	q := quotes[0]
	change := decimal.Zero
	changePct := decimal.Zero
	if q.LastDone != nil && q.PrevClose != nil && !q.PrevClose.IsZero() {
		change = q.LastDone.Sub(*q.PrevClose)
		changePct = change.Div(*q.PrevClose).Mul(decimal.NewFromInt(100))
	}

	changeVal, _ := change.Float64()
	changePctVal, _ := changePct.Float64()
	return &models.Quote{
		Symbol:        symbol,
		Price:         decimalValue(q.LastDone),
		Change:        changeVal,
		ChangePercent: changePctVal,
		PreviousClose: decimalValue(q.PrevClose),
		DayHigh:       decimalValue(q.High),
		DayLow:        decimalValue(q.Low),
		Volume:        q.Volume,
	}, nil
}

func decimalValue(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	v, _ := d.Float64()
	return v
}

// GetProfile fetches static company info.
func (lpc *LongportClient) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	infos, err := lpc.quoteCtx.StaticInfo(ctx, []string{symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to get static info for %s: %w", symbol, err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("no static info for %s", symbol)
	}

	info := infos[0]
	return &models.CompanyProfile{
		Symbol:   symbol,
		Name:     info.NameEn,
		Exchange: info.Exchange,
		Currency: info.Currency,
	}, nil
}
