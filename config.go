package sitegen

import (
	"log/slog"
	"runtime"

	"github.com/eringen/sitegen/engine"
)

// SiteConfig holds all configuration for a site build.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Site")
	URL         string `mapstructure:"url"`         // Canonical URL; sitemap.xml is written when set
	Description string `mapstructure:"description"` // Site description for meta tags
	Author      string `mapstructure:"author"`

	OutputDir    string `mapstructure:"outputDir"`    // Build output directory (default "public")
	ManifestPath string `mapstructure:"manifestPath"` // SQLite build manifest; empty disables it
	DataFile     string `mapstructure:"dataFile"`     // JSON/YAML document merged into Data

	Concurrency int `mapstructure:"concurrency"` // Pages rendered at once (default NumCPU)
	MaxDepth    int `mapstructure:"maxDepth"`    // Block nesting limit (default engine.DefaultMaxDepth)

	Addr string `mapstructure:"addr"` // Preview server listen address (default ":3000")

	// Data holds site-wide fields available to every page template.
	Data map[string]any `mapstructure:"data"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Site"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = engine.DefaultMaxDepth
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
}

// PageConfig is the per-page configuration passed to GeneratePage.
type PageConfig struct {
	// SiteConfig holds site-wide fields. Page content fields win on collision.
	SiteConfig map[string]any
	// Helpers are merged over the default helpers for this page only.
	Helpers engine.Helpers
}

// Option configures additional Builder behavior.
type Option func(*Builder)

// WithLogger sets the structured logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithHelpers registers helpers for every page the builder generates. They
// override the defaults and are in turn overridden by PageConfig.Helpers.
func WithHelpers(h engine.Helpers) Option {
	return func(b *Builder) {
		b.Helpers = b.Helpers.Merge(h)
	}
}

// WithManifest uses an already opened manifest instead of opening
// ManifestPath.
func WithManifest(m *Manifest) Option {
	return func(b *Builder) {
		b.Manifest = m
	}
}
