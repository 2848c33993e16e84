package dataflows

import (
	"strings"
	"testing"
	"time"
)

func TestParseFinnhubQuote(t *testing.T) {
	body := []byte(`{"c":227.55,"d":1.25,"dp":0.5524,"h":228.22,"l":224.9,"o":226.1,"pc":226.3}`)

	quote, err := parseFinnhubQuote(body, "AAPL")
	if err != nil {
		t.Fatalf("parseFinnhubQuote returned error: %v", err)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", quote.Symbol)
	}
	if quote.Price != 227.55 {
		t.Errorf("Price = %v, want 227.55", quote.Price)
	}
	if quote.ChangePercent != 0.5524 {
		t.Errorf("ChangePercent = %v, want 0.5524", quote.ChangePercent)
	}
	if quote.PreviousClose != 226.3 {
		t.Errorf("PreviousClose = %v, want 226.3", quote.PreviousClose)
	}
}

func TestParseFinnhubQuoteEmpty(t *testing.T) {
	// Finnhub answers unknown symbols with an all-zero quote.
	if _, err := parseFinnhubQuote([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0}`), "NOPE"); err == nil {
		t.Fatal("parseFinnhubQuote accepted an all-zero quote")
	}
	if _, err := parseFinnhubQuote([]byte(`not json`), "AAPL"); err == nil {
		t.Fatal("parseFinnhubQuote accepted malformed JSON")
	}
}

func TestParseFinnhubProfile(t *testing.T) {
	body := []byte(`{
		"country":"US","currency":"USD","exchange":"NASDAQ NMS - GLOBAL MARKET",
		"finnhubIndustry":"Technology","ipo":"1980-12-12",
		"marketCapitalization":3458735.17,"name":"Apple Inc","ticker":"AAPL",
		"weburl":"https://www.apple.com/"}`)

	profile, err := parseFinnhubProfile(body, "AAPL")
	if err != nil {
		t.Fatalf("parseFinnhubProfile returned error: %v", err)
	}
	if profile.Name != "Apple Inc" || profile.Industry != "Technology" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.MarketCap != 3458735.17 {
		t.Errorf("MarketCap = %v, want 3458735.17", profile.MarketCap)
	}

	if _, err := parseFinnhubProfile([]byte(`{}`), "NOPE"); err == nil {
		t.Fatal("parseFinnhubProfile accepted an empty profile")
	}
}

func TestParseFinnhubNews(t *testing.T) {
	body := []byte(`[
		{"category":"company","datetime":1715700000,"headline":"Apple unveils things","id":1,"source":"Reuters","summary":"Event recap.","url":"https://example.com/a"},
		{"category":"company","datetime":1715600000,"headline":"","id":2,"source":"Blog","summary":"","url":"https://example.com/b"},
		{"category":"company","datetime":1715500000,"headline":"Supplier update","id":3,"source":"WSJ","summary":"","url":"https://example.com/c"},
		{"category":"company","datetime":1715400000,"headline":"Old story","id":4,"source":"AP","summary":"","url":"https://example.com/d"}
	]`)

	items, err := parseFinnhubNews(body, 2)
	if err != nil {
		t.Fatalf("parseFinnhubNews returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2 (limit applied, blank headline skipped)", len(items))
	}
	if items[0].Headline != "Apple unveils things" || items[1].Headline != "Supplier update" {
		t.Errorf("items = %+v", items)
	}
	wantTime := time.Unix(1715700000, 0).UTC()
	if !items[0].Datetime.Equal(wantTime) {
		t.Errorf("Datetime = %v, want %v", items[0].Datetime, wantTime)
	}
	if !strings.Contains(items[0].URL, "example.com") {
		t.Errorf("URL = %q", items[0].URL)
	}
}
