package indicators

import "github.com/mkarlsen/stratagem/internal/models"

// Default is the indicator selection used when a caller does not name
// any.
var Default = []string{"sma_20", "sma_50", "rsi", "macd", "bollinger_bands"}

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerWidth  = 2.0
	volumePeriod    = 20
)

// Compute assembles an IndicatorSet for the named indicators over one
// price series. Unrecognized names are skipped; computing twice over the
// same series yields identical sets.
func Compute(series *models.Series, names []string) *models.IndicatorSet {
	if len(names) == 0 {
		names = Default
	}
	closes := series.Closes()
	set := &models.IndicatorSet{}
	for _, name := range names {
		switch name {
		case "sma_20":
			set.SMA20 = SMA(closes, 20)
		case "sma_50":
			set.SMA50 = SMA(closes, 50)
		case "ema_12":
			set.EMA12 = EMA(closes, 12)
		case "ema_26":
			set.EMA26 = EMA(closes, 26)
		case "rsi":
			set.RSI = RSI(closes, rsiPeriod)
		case "macd":
			set.MACD = MACD(closes)
		case "bollinger_bands":
			set.Bollinger = Bollinger(closes, bollingerPeriod, bollingerWidth)
		case "volume_sma":
			set.VolumeSMA = SMA(series.Volumes(), volumePeriod)
		}
	}
	return set
}
