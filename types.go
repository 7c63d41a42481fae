package sitegen

import "time"

// PageSpec names the inputs and output of one page in a build plan.
type PageSpec struct {
	Content  string `mapstructure:"content" json:"content"`   // Content document path
	Template string `mapstructure:"template" json:"template"` // Template path
	Output   string `mapstructure:"output" json:"output"`     // Output path, relative to OutputDir unless absolute
	URL      string `mapstructure:"url" json:"url,omitempty"` // Public path for the sitemap (derived from Output when empty)
}

// BuildResult summarizes a Build. Page lists hold output paths, sorted.
type BuildResult struct {
	Generated []string // Written this run
	Unchanged []string // Rendered output matched the manifest; file left alone
	Skipped   []string // Content document missing
	Duration  time.Duration
}
