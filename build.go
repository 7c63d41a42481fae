package sitegen

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SitemapFile is the name of the sitemap written into the output directory.
const SitemapFile = "sitemap.xml"

// siteInfo is the "site" object every page can reference.
func siteInfo(cfg SiteConfig) map[string]any {
	return map[string]any{
		"name":        cfg.Name,
		"url":         cfg.URL,
		"description": cfg.Description,
		"author":      cfg.Author,
	}
}

// SiteData returns the site-wide fields for page contexts: a "site" object
// built from the configuration, then Config.Data, then the fields of
// Config.DataFile, later sources winning.
func (b *Builder) SiteData() (map[string]any, error) {
	data := map[string]any{"site": siteInfo(b.Config)}
	maps.Copy(data, b.Config.Data)
	if b.Config.DataFile == "" {
		return data, nil
	}
	v, err := b.LoadContent(b.Config.DataFile)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return data, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sitegen: data file %s: top level must be an object", b.Config.DataFile)
	}
	maps.Copy(data, obj)
	return data, nil
}

// OutputPath resolves a page's output path against Config.OutputDir.
func (b *Builder) OutputPath(p PageSpec) string {
	if filepath.IsAbs(p.Output) {
		return p.Output
	}
	return filepath.Join(b.Config.OutputDir, p.Output)
}

func (b *Builder) publicURL(p PageSpec) string {
	if p.URL != "" {
		return p.URL
	}
	rel, err := filepath.Rel(b.Config.OutputDir, b.OutputPath(p))
	if err != nil {
		rel = p.Output
	}
	return pageURL(rel)
}

// Build generates every page in pages, up to Config.Concurrency at a time.
// The first failure stops pages that have not started and is returned.
// When Config.URL is set a sitemap of the generated and unchanged pages is
// written to the output directory.
func (b *Builder) Build(ctx context.Context, pages []PageSpec) (BuildResult, error) {
	start := time.Now()

	site, err := b.SiteData()
	if err != nil {
		return BuildResult{}, err
	}
	cfg := PageConfig{SiteConfig: site}

	var (
		mu      sync.Mutex
		res     BuildResult
		sitemap []SitemapPage
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Config.Concurrency)
	for _, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := b.OutputPath(p)
			pr, err := b.generatePage(p.Content, p.Template, out, cfg)
			if err != nil {
				return fmt.Errorf("sitegen: page %s: %w", p.Output, err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch pr.status {
			case pageSkipped:
				res.Skipped = append(res.Skipped, out)
				return nil
			case pageUnchanged:
				res.Unchanged = append(res.Unchanged, out)
			default:
				res.Generated = append(res.Generated, out)
			}
			sitemap = append(sitemap, SitemapPage{URL: b.publicURL(p), LastMod: pr.builtAt})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	slices.Sort(res.Generated)
	slices.Sort(res.Unchanged)
	slices.Sort(res.Skipped)

	if b.Config.URL != "" && len(sitemap) > 0 {
		slices.SortFunc(sitemap, func(x, y SitemapPage) int {
			return strings.Compare(x.URL, y.URL)
		})
		path := filepath.Join(b.Config.OutputDir, SitemapFile)
		if err := WriteSitemap(path, b.Config.URL, sitemap); err != nil {
			return res, err
		}
	}

	res.Duration = time.Since(start)
	b.logger.Info("build complete",
		"generated", len(res.Generated),
		"unchanged", len(res.Unchanged),
		"skipped", len(res.Skipped),
		"duration", res.Duration,
	)
	return res, nil
}
