package signals

import (
	"math"
	"testing"

	"github.com/mkarlsen/stratagem/internal/models"
)

var nan = math.NaN()

func seriesOf(closes ...float64) *models.Series {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{Close: c, Volume: 100}
	}
	return &models.Series{Symbol: "TEST", Candles: candles}
}

func TestCrossoverRule(t *testing.T) {
	tests := []struct {
		name        string
		short, long []float64
		want        []int
	}{
		{"above", []float64{10}, []float64{9}, []int{1}},
		{"below", []float64{9}, []float64{10}, []int{-1}},
		{"equal", []float64{10}, []float64{10}, []int{0}},
		{"undefined short", []float64{nan}, []float64{10}, []int{0}},
		{"undefined long", []float64{10}, []float64{nan}, []int{0}},
	}
	for _, tt := range tests {
		got := crossoverRule(tt.short, tt.long)
		if got[0] != tt.want[0] {
			t.Errorf("%s: got %d, want %d", tt.name, got[0], tt.want[0])
		}
	}
}

func TestRSIRule(t *testing.T) {
	got := rsiRule([]float64{25, 30, 50, 70, 75, nan})
	want := []int{1, 0, 0, 0, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBollingerRule(t *testing.T) {
	bands := &models.BollingerSeries{
		Middle: []float64{100, 100, 100, nan},
		Upper:  []float64{110, 110, 110, nan},
		Lower:  []float64{90, 90, 90, nan},
	}
	got := bollingerRule([]float64{85, 115, 100, 100}, bands)
	want := []int{1, -1, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFuseReducesToSign(t *testing.T) {
	got := fuse(3,
		[]int{1, -1, 1},
		[]int{1, -1, -1},
		[]int{-1, 1, 0},
	)
	want := []int{1, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGenerateWithoutIndicators(t *testing.T) {
	set := Generate(seriesOf(100, 101, 102), &models.IndicatorSet{})
	if set.Overall != nil {
		t.Fatalf("expected empty overall series, got %v", set.Overall)
	}
	if set.MACrossover != nil || set.RSI != nil || set.MACD != nil || set.Bollinger != nil {
		t.Fatal("expected no rule series without indicators")
	}
}

func TestGenerateGatesCrossoverOnBothAverages(t *testing.T) {
	series := seriesOf(100, 101, 102)
	set := Generate(series, &models.IndicatorSet{SMA20: []float64{1, 2, 3}})
	if set.MACrossover != nil {
		t.Fatal("crossover rule needs both moving averages")
	}
}

func TestGenerateWarmupStaysNeutral(t *testing.T) {
	series := seriesOf(100, 101, 102, 103)
	set := Generate(series, &models.IndicatorSet{
		SMA20: []float64{nan, nan, 102, 103},
		SMA50: []float64{nan, nan, 101, nan},
	})
	want := []int{0, 0, 1, 0}
	for i := range want {
		if set.Overall[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, set.Overall[i], want[i])
		}
	}
}
