package sitegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteSitemap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sitemap.xml")
	pages := []SitemapPage{
		{URL: "/"},
		{URL: "/about/", LastMod: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)},
	}
	if err := WriteSitemap(path, "https://example.com/", pages); err != nil {
		t.Fatalf("WriteSitemap failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`<loc>https://example.com/</loc>`,
		`<loc>https://example.com/about/</loc>`,
		`<lastmod>2024-01-15</lastmod>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q:\n%s", want, body)
		}
	}
	if strings.Count(body, "<lastmod>") != 1 {
		t.Errorf("expected lastmod only for the dated page:\n%s", body)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"index.html", "/"},
		{"about/index.html", "/about/"},
		{"docs/api/index.html", "/docs/api/"},
		{"pricing.html", "/pricing.html"},
		{"/feed.xml", "/feed.xml"},
	}
	for _, tt := range tests {
		if got := pageURL(tt.input); got != tt.expected {
			t.Errorf("pageURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, expected string
	}{
		{"https://example.com", "/about/", "https://example.com/about/"},
		{"https://example.com/", "about/", "https://example.com/about/"},
		{"https://example.com/site", "/", "https://example.com/site/"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.expected {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.expected)
		}
	}
}
