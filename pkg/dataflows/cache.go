package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/mkarlsen/stratagem/internal/models"
)

// candleRow is the Parquet schema for cached daily bars.
type candleRow struct {
	Date   int64   `parquet:"date,timestamp(millisecond)"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

// SeriesCache caches provider responses on disk: one Parquet file per
// symbol+period for OHLCV histories, JSON blobs for everything else.
// Entries expire by file mtime.
type SeriesCache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// NewSeriesCache creates a cache rooted at dir. A disabled cache is a
// no-op on both reads and writes.
func NewSeriesCache(dir string, ttl time.Duration, enabled bool) *SeriesCache {
	return &SeriesCache{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled,
	}
}

func (c *SeriesCache) seriesPath(symbol, period string) string {
	name := fmt.Sprintf("%s_%s.parquet", NormalizeSymbol(symbol), period)
	return filepath.Join(c.dir, "series", name)
}

// GetSeries returns a cached history if present and not expired.
func (c *SeriesCache) GetSeries(symbol, period string) (*models.Series, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.seriesPath(symbol, period)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	rows, err := parquet.ReadFile[candleRow](path)
	if err != nil || len(rows) == 0 {
		return nil, false
	}

	series := &models.Series{
		Symbol:  NormalizeSymbol(symbol),
		Period:  period,
		Candles: make([]models.Candle, 0, len(rows)),
	}
	for _, row := range rows {
		series.Candles = append(series.Candles, models.Candle{
			Date:   time.UnixMilli(row.Date).UTC(),
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return series, true
}

// PutSeries stores a history in the cache.
func (c *SeriesCache) PutSeries(series *models.Series) error {
	if !c.enabled || series == nil || len(series.Candles) == 0 {
		return nil
	}

	path := c.seriesPath(series.Symbol, series.Period)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	rows := make([]candleRow, 0, len(series.Candles))
	for _, candle := range series.Candles {
		rows = append(rows, candleRow{
			Date:   candle.Date.UnixMilli(),
			Open:   candle.Open,
			High:   candle.High,
			Low:    candle.Low,
			Close:  candle.Close,
			Volume: candle.Volume,
		})
	}
	return parquet.WriteFile(path, rows)
}

// getCacheKey generates a cache key from parameters
func (c *SeriesCache) getCacheKey(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x.json", source, method, hash)
}

// Get retrieves JSON-cached data if not expired
func (c *SeriesCache) Get(source, method string, params interface{}, result interface{}) bool {
	if !c.enabled {
		return false
	}

	key := c.getCacheKey(source, method, params)
	filePath := filepath.Join(c.dir, key)

	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(filePath)
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, result) == nil
}

// Set stores data in the JSON cache
func (c *SeriesCache) Set(source, method string, params interface{}, data interface{}) error {
	if !c.enabled {
		return nil
	}

	key := c.getCacheKey(source, method, params)
	filePath := filepath.Join(c.dir, key)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, jsonData, 0o644)
}
