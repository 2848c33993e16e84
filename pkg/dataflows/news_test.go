package dataflows

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const newsPage = `
<html><body>
<article>
  <a href="./read/abc123"><h3>Apple beats expectations</h3></a>
  <div data-n-tid="9">Reuters</div>
  <time datetime="2024-05-01T14:30:00Z">May 1</time>
</article>
<article>
  <a href="/url?url=https%3A%2F%2Fexample.com%2Fstory&amp;ct=ga"><h4>iPhone supply update</h4></a>
  <div data-n-tid="9">Bloomberg</div>
  <time>3 hours ago</time>
</article>
<article>
  <a href="./read/abc123"><h3>Apple beats expectations</h3></a>
</article>
<article>
  <a href="./read/nothing"></a>
</article>
</body></html>`

func TestParseNewsHTML(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(newsPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	items := parseNewsHTML(doc, 10, now)

	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2 (duplicate and headline-less articles dropped)", len(items))
	}

	first := items[0]
	if first.Headline != "Apple beats expectations" {
		t.Errorf("Headline = %q", first.Headline)
	}
	if first.Source != "Reuters" {
		t.Errorf("Source = %q, want Reuters", first.Source)
	}
	if first.URL != "https://news.google.com/read/abc123" {
		t.Errorf("URL = %q", first.URL)
	}
	wantTime := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	if !first.Datetime.Equal(wantTime) {
		t.Errorf("Datetime = %v, want %v", first.Datetime, wantTime)
	}

	second := items[1]
	if second.URL != "https://example.com/story" {
		t.Errorf("redirect URL = %q, want the unwrapped target", second.URL)
	}
	if !second.Datetime.Equal(now.Add(-3 * time.Hour)) {
		t.Errorf("relative Datetime = %v, want now-3h", second.Datetime)
	}
}

func TestParseNewsHTMLHonorsLimit(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(newsPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	items := parseNewsHTML(doc, 1, time.Now())
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}

func TestCleanNewsURL(t *testing.T) {
	cases := map[string]string{
		"./read/xyz":           "https://news.google.com/read/xyz",
		"/rss/articles/42":     "https://news.google.com/rss/articles/42",
		"https://plain.example": "https://plain.example",
		"/url?url=https%3A%2F%2Fexample.com%2Fa&ct=ga": "https://example.com/a",
	}
	for input, want := range cases {
		if got := cleanNewsURL(input); got != want {
			t.Errorf("cleanNewsURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseTimeText(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"5 minutes ago": now.Add(-5 * time.Minute),
		"3 hours ago":   now.Add(-3 * time.Hour),
		"2 days ago":    now.Add(-48 * time.Hour),
		"Yesterday":     now.Add(-24 * time.Hour),
	}
	for input, want := range cases {
		if got := parseTimeText(input, now); !got.Equal(want) {
			t.Errorf("parseTimeText(%q) = %v, want %v", input, got, want)
		}
	}

	// Unparseable text falls back to an hour ago.
	if got := parseTimeText("last Tuesday-ish", now); !got.Equal(now.Add(-time.Hour)) {
		t.Errorf("fallback = %v, want now-1h", got)
	}
}
