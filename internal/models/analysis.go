package models

// IndicatorSet carries computed indicator series aligned index-for-index
// with the source candles. Warm-up positions hold NaN rather than being
// trimmed, so every slice keeps the full series length. Nil slices and
// nil sub-structs mean the indicator was not requested.
type IndicatorSet struct {
	SMA20     []float64        `json:"sma_20,omitempty"`
	SMA50     []float64        `json:"sma_50,omitempty"`
	EMA12     []float64        `json:"ema_12,omitempty"`
	EMA26     []float64        `json:"ema_26,omitempty"`
	RSI       []float64        `json:"rsi,omitempty"`
	MACD      *MACDSeries      `json:"macd,omitempty"`
	Bollinger *BollingerSeries `json:"bollinger_bands,omitempty"`
	VolumeSMA []float64        `json:"volume_sma,omitempty"`
}

type MACDSeries struct {
	Line      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

type BollingerSeries struct {
	Middle []float64 `json:"middle"`
	Upper  []float64 `json:"upper"`
	Lower  []float64 `json:"lower"`
}

type AnalysisPayload struct {
	Symbol     string        `json:"symbol"`
	Series     *Series       `json:"series,omitempty"`
	Indicators *IndicatorSet `json:"indicators"`
}

// SignalSet holds per-rule trading signals plus their fused overall
// series. Each slice aligns with the source candles; values are -1, 0
// or +1. A nil rule slice means the rule's indicator was unavailable.
type SignalSet struct {
	MACrossover []int `json:"ma_signal,omitempty"`
	RSI         []int `json:"rsi_signal,omitempty"`
	MACD        []int `json:"macd_signal,omitempty"`
	Bollinger   []int `json:"bb_signal,omitempty"`
	Overall     []int `json:"overall_signal"`
}

type SignalPayload struct {
	Symbol  string     `json:"symbol"`
	Series  *Series    `json:"series,omitempty"`
	Signals *SignalSet `json:"signals"`
}
