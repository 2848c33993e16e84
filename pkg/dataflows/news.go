package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/mkarlsen/stratagem/internal/models"
)

// NewsScraper pulls recent headlines for a symbol from the Google News
// search page. No credentials needed, but the markup shifts now and then,
// so callers should treat it as best-effort and keep a fallback.
type NewsScraper struct {
	client *resty.Client
	cache  *SeriesCache
	retry  *RetryConfig
}

// NewNewsScraper creates a new headline scraper
func NewNewsScraper(cfg *Config) *NewsScraper {
	cacheDir := filepath.Join(cfg.CacheDir, "news")
	cache := NewSeriesCache(cacheDir, 30*time.Minute, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &NewsScraper{
		client: client,
		cache:  cache,
		retry:  DefaultRetryConfig(),
	}
}

func (ns *NewsScraper) Name() string { return "scraper" }

// GetNews scrapes recent headlines mentioning the symbol.
func (ns *NewsScraper) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	if limit <= 0 {
		limit = 10
	}

	cacheKey := map[string]interface{}{"symbol": symbol, "limit": limit}
	var cached []models.NewsItem
	if ns.cache.Get("scraper", "headlines", cacheKey, &cached) {
		return cached, nil
	}

	searchURL := buildNewsSearchURL(symbol)

	var items []models.NewsItem
	err := WithRetry(ctx, ns.retry, func() error {
		resp, err := ns.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return fmt.Errorf("failed to fetch headlines for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when fetching headlines", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("failed to parse HTML: %w", err)
		}

		items = parseNewsHTML(doc, limit, time.Now())
		if len(items) == 0 {
			return fmt.Errorf("no headlines found for %s", symbol)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ns.cache.Set("scraper", "headlines", cacheKey, items)

	return items, nil
}

func buildNewsSearchURL(symbol string) string {
	query := url.QueryEscape(symbol + " stock")
	return fmt.Sprintf("https://news.google.com/search?q=%s&hl=en&gl=US&ceid=US:en", query)
}

// parseNewsHTML extracts headline items from a Google News search page.
func parseNewsHTML(doc *goquery.Document, limit int, now time.Time) []models.NewsItem {
	var items []models.NewsItem
	seen := make(map[string]bool)

	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		if limit > 0 && len(items) >= limit {
			return
		}

		headline := ""
		for _, sel := range []string{"h3", "h4", "[role='heading']", "a.JtKRv"} {
			if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
				headline = t
				break
			}
		}
		if headline == "" || seen[headline] {
			return
		}
		seen[headline] = true

		link := s.Find("a").First()
		href, _ := link.Attr("href")
		articleURL := cleanNewsURL(href)

		source := strings.TrimSpace(s.Find("[data-n-tid], .wEwyrc, .vr1PYe").First().Text())

		published := now
		timeNode := s.Find("time").First()
		if datetimeAttr, ok := timeNode.Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, datetimeAttr); err == nil {
				published = t
			}
		} else if timeText := strings.TrimSpace(timeNode.Text()); timeText != "" {
			published = parseTimeText(timeText, now)
		}

		items = append(items, models.NewsItem{
			Headline: headline,
			Source:   source,
			URL:      articleURL,
			Datetime: published.UTC(),
		})
	})

	return items
}

// cleanNewsURL resolves Google redirect and relative URLs.
func cleanNewsURL(googleURL string) string {
	if strings.Contains(googleURL, "/url?") {
		parts := strings.Split(googleURL, "url=")
		if len(parts) > 1 {
			decoded, err := url.QueryUnescape(parts[1])
			if err == nil {
				if idx := strings.Index(decoded, "&"); idx != -1 {
					decoded = decoded[:idx]
				}
				return decoded
			}
		}
	}

	if strings.HasPrefix(googleURL, "./") {
		return "https://news.google.com" + googleURL[1:]
	}
	if strings.HasPrefix(googleURL, "/") {
		return "https://news.google.com" + googleURL
	}

	return googleURL
}

var relativeTimePatterns = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`(\d+)\s*minutes?\s*ago`), time.Minute},
	{regexp.MustCompile(`(\d+)\s*hours?\s*ago`), time.Hour},
	{regexp.MustCompile(`(\d+)\s*days?\s*ago`), 24 * time.Hour},
}

// parseTimeText converts relative time text ("3 hours ago") to a timestamp.
func parseTimeText(timeText string, now time.Time) time.Time {
	timeText = strings.ToLower(strings.TrimSpace(timeText))

	if timeText == "yesterday" {
		return now.Add(-24 * time.Hour)
	}

	for _, pattern := range relativeTimePatterns {
		if matches := pattern.re.FindStringSubmatch(timeText); len(matches) > 1 {
			if n, err := strconv.Atoi(matches[1]); err == nil && n > 0 {
				return now.Add(-time.Duration(n) * pattern.unit)
			}
		}
	}

	// Default to recent time if can't parse
	return now.Add(-1 * time.Hour)
}
