package models

import "time"

type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is a daily OHLCV history for one symbol, oldest candle first.
type Series struct {
	Symbol  string   `json:"symbol"`
	Period  string   `json:"period"`
	Candles []Candle `json:"candles"`
}

func (s *Series) Len() int {
	return len(s.Candles)
}

func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = float64(c.Volume)
	}
	return out
}

func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Date
	}
	return out
}

type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	PreviousClose float64 `json:"previous_close"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Volume        int64   `json:"volume"`
	MarketCap     int64   `json:"market_cap,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
}

type CompanyProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Industry  string  `json:"industry,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
	Country   string  `json:"country,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	WebURL    string  `json:"web_url,omitempty"`
	IPO       string  `json:"ipo,omitempty"`
}

type NewsItem struct {
	Headline string    `json:"headline"`
	Summary  string    `json:"summary,omitempty"`
	Source   string    `json:"source,omitempty"`
	URL      string    `json:"url,omitempty"`
	Datetime time.Time `json:"datetime"`
}

// FetchPayload is the outcome data of every data-fetch tool. Aggregated
// fetches fill the optional sections; single-source fetches leave them nil.
// SourceErrors records per-source failures an aggregated fetch tolerated.
type FetchPayload struct {
	Symbol       string          `json:"symbol"`
	Period       string          `json:"period"`
	Series       *Series         `json:"series,omitempty"`
	Quote        *Quote          `json:"quote,omitempty"`
	Profile      *CompanyProfile `json:"profile,omitempty"`
	News         []NewsItem      `json:"news,omitempty"`
	SourceErrors []string        `json:"source_errors,omitempty"`
}
