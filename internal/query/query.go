// Package query classifies free-text research questions into one of a
// fixed set of categories and extracts the ticker symbols they mention.
// Classification is a pure function of the input text and the static
// pattern tables below.
package query

import (
	"regexp"
	"strings"
)

type Category string

const (
	StockAnalysis     Category = "stock_analysis"
	Comparison        Category = "comparison"
	TechnicalAnalysis Category = "technical_analysis"
	Backtesting       Category = "backtesting"
	Reporting         Category = "reporting"
	ChartRequest      Category = "chart_request"
	GeneralQuery      Category = "general_query"
)

// Classification is immutable once produced. Symbols keep the order of
// first occurrence in the query.
type Classification struct {
	Query    string   `json:"query"`
	Category Category `json:"category"`
	Symbols  []string `json:"symbols,omitempty"`
}

// Keyword parts match case-insensitively while ticker captures stay
// strictly uppercase, so "compare AAPL and msft" captures only AAPL-style
// tokens.
var comparisonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:compar(?:e|ing|ison))\b.*?\b([A-Z]{1,5})\b.*?(?i:\b(?:and|vs|versus)\b)\s*([A-Z]{1,5})\b`),
	regexp.MustCompile(`\b([A-Z]{1,5})\s+(?i:(?:vs\.?|versus|and))\s+([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i:difference\s+between)\s+([A-Z]{1,5})\s+(?i:and)\s+([A-Z]{1,5})\b`),
}

// categoryTable is evaluated in order after the comparison check; the
// first matching pattern decides the category.
var categoryTable = []struct {
	category Category
	patterns []*regexp.Regexp
}{
	{StockAnalysis, []*regexp.Regexp{
		regexp.MustCompile(`(?i:analyz(?:e|ing)).*?(?i:\b(?:stock|symbol|ticker)\b)\s+([A-Z]{1,5})\b`),
		regexp.MustCompile(`(?i:\b(?:stock|symbol|ticker)\b)\s+([A-Z]{1,5})\b.*?(?i:analyz)`),
		regexp.MustCompile(`(?i:tell\s+me\s+about)\s+([A-Z]{1,5})\b`),
		regexp.MustCompile(`(?i:research)\s+([A-Z]{1,5})\b`),
	}},
	{TechnicalAnalysis, []*regexp.Regexp{
		regexp.MustCompile(`(?i)technical\s+(?:analysis|indicators?)`),
		regexp.MustCompile(`(?i)\b(?:rsi|macd|bollinger|moving\s+average)\b`),
		regexp.MustCompile(`(?i)trading\s+(?:signals?|strategy)`),
		regexp.MustCompile(`(?i)chart\s+(?:pattern|analysis)`),
	}},
	{Backtesting, []*regexp.Regexp{
		regexp.MustCompile(`(?i)backtest`),
		regexp.MustCompile(`(?i)\b(?:test|testing)\s+(?:strategy|strategies)`),
		regexp.MustCompile(`(?i)historical\s+performance`),
		regexp.MustCompile(`(?i)strategy\s+performance`),
	}},
	{Reporting, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:create|generate|make)\s+(?:report|presentation)`),
		regexp.MustCompile(`(?i)(?:pdf|powerpoint|ppt)\s+report`),
		regexp.MustCompile(`(?i)export\s+(?:analysis|results)`),
		regexp.MustCompile(`(?i)summarize\s+(?:analysis|findings)`),
	}},
	{ChartRequest, []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:show|display|create|generate|plot)\s+(?:chart|graph)`),
		regexp.MustCompile(`(?i)visualiz(?:e|ation)`),
		regexp.MustCompile(`(?i)plot\s+(?:price|performance|data)`),
		regexp.MustCompile(`(?i)chart\s+(?:of|for)`),
	}},
}

var symbolPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

var stopWords = map[string]struct{}{
	"THE": {}, "AND": {}, "OR": {}, "FOR": {}, "TO": {}, "OF": {}, "IN": {},
	"ON": {}, "AT": {}, "BY": {}, "IS": {}, "ARE": {}, "WAS": {}, "WERE": {},
}

// Classify determines the query category and its symbols. Comparison is
// checked first and its two captured tickers override generic
// extraction; with no category match the result falls back to stock
// analysis when symbols are present, otherwise to a general query.
func Classify(text string) Classification {
	q := strings.TrimSpace(text)
	c := Classification{Query: q, Category: GeneralQuery, Symbols: ExtractSymbols(q)}

	for _, p := range comparisonPatterns {
		if m := p.FindStringSubmatch(q); m != nil {
			c.Category = Comparison
			c.Symbols = []string{m[1], m[2]}
			return c
		}
	}

	for _, entry := range categoryTable {
		for _, p := range entry.patterns {
			m := p.FindStringSubmatch(q)
			if m == nil {
				continue
			}
			c.Category = entry.category
			if entry.category == StockAnalysis && len(c.Symbols) == 0 && len(m) > 1 && m[1] != "" {
				c.Symbols = []string{m[1]}
			}
			return c
		}
	}

	if len(c.Symbols) > 0 {
		c.Category = StockAnalysis
	}
	return c
}

// ExtractSymbols scans for uppercase tokens of one to five letters,
// drops stop words and deduplicates while preserving first occurrence.
func ExtractSymbols(text string) []string {
	var symbols []string
	seen := make(map[string]struct{})
	for _, token := range symbolPattern.FindAllString(text, -1) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		symbols = append(symbols, token)
	}
	return symbols
}
