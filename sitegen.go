// Package sitegen is a static site generator built around a small logic-less
// template engine. Pages are produced by merging a content document (JSON,
// YAML or Markdown with front matter) with site-wide data and rendering the
// result through a template.
//
// The template language itself lives in the engine package; this package
// handles content loading, the default helper set, output writing, the build
// manifest, sitemaps and a preview server.
package sitegen

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/eringen/sitegen/engine"
)

// Builder renders pages for one site. It is safe for concurrent use once
// Open has returned.
type Builder struct {
	Config    SiteConfig
	Helpers   engine.Helpers // Builder-wide helper overrides
	Templates *TemplateCache
	Manifest  *Manifest

	renderer *engine.Renderer
	logger   *slog.Logger
}

// New creates a Builder with the given configuration.
func New(cfg SiteConfig, opts ...Option) *Builder {
	cfg.setDefaults()

	b := &Builder{
		Config:    cfg,
		Templates: NewTemplateCache(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.renderer = engine.New(engine.WithMaxDepth(cfg.MaxDepth))
	return b
}

// Open opens the build manifest when ManifestPath is set and no manifest was
// supplied with WithManifest.
func (b *Builder) Open() error {
	if b.Manifest != nil || b.Config.ManifestPath == "" {
		return nil
	}
	m, err := OpenManifest(b.Config.ManifestPath)
	if err != nil {
		return fmt.Errorf("sitegen: init manifest: %w", err)
	}
	b.Manifest = m
	return nil
}

// Close releases the manifest.
func (b *Builder) Close() error {
	if b.Manifest != nil {
		return b.Manifest.Close()
	}
	return nil
}

// Renderer returns the engine renderer configured for this site.
func (b *Builder) Renderer() *engine.Renderer {
	return b.renderer
}

// GeneratePage renders one page and writes it to outputPath, creating parent
// directories as needed. It reports false with a nil error when the content
// document does not exist; nothing is written in that case.
func (b *Builder) GeneratePage(contentPath, templatePath, outputPath string, cfg PageConfig) (bool, error) {
	res, err := b.generatePage(contentPath, templatePath, outputPath, cfg)
	if err != nil {
		return false, err
	}
	return res.status != pageSkipped, nil
}

// RenderPage renders one page and returns the output without writing it. ok
// is false when the content document does not exist.
func (b *Builder) RenderPage(contentPath, templatePath string, cfg PageConfig) (out string, ok bool, err error) {
	content, err := b.LoadContent(contentPath)
	if err != nil {
		return "", false, err
	}
	if content == nil {
		return "", false, nil
	}

	tpl, err := b.Templates.Get(templatePath)
	if err != nil {
		return "", false, fmt.Errorf("sitegen: read template %s: %w", templatePath, err)
	}

	out, err = b.renderer.Render(tpl, PageContext(cfg.SiteConfig, content), b.pageHelpers(cfg))
	if err != nil {
		return "", false, fmt.Errorf("sitegen: render %s: %w", templatePath, err)
	}
	return out, true, nil
}

// PageContext builds the render context for a page. Lookups consult the
// content fields first, then the "page" key bound to the whole document,
// then site-wide fields.
func PageContext(site map[string]any, content any) *engine.Scope {
	sc := engine.NewScope(site).With(map[string]any{"page": content})
	if obj, ok := engine.Object(content); ok {
		sc = sc.With(obj)
	}
	return sc
}

func (b *Builder) pageHelpers(cfg PageConfig) engine.Helpers {
	return DefaultHelpers().Merge(b.Helpers).Merge(cfg.Helpers)
}

type pageStatus int

const (
	pageGenerated pageStatus = iota
	pageUnchanged
	pageSkipped
)

type pageResult struct {
	status  pageStatus
	builtAt time.Time
}

func (b *Builder) generatePage(contentPath, templatePath, outputPath string, cfg PageConfig) (pageResult, error) {
	out, ok, err := b.RenderPage(contentPath, templatePath, cfg)
	if err != nil {
		return pageResult{}, err
	}
	if !ok {
		return pageResult{status: pageSkipped}, nil
	}

	sum := checksum(out)
	if b.Manifest != nil {
		prev, err := b.Manifest.Get(outputPath)
		if err == nil && prev.Checksum == sum && fileExists(outputPath) {
			b.logger.Debug("page unchanged", "output", outputPath)
			return pageResult{status: pageUnchanged, builtAt: prev.BuiltAt}, nil
		}
	}

	if err := writeOutput(outputPath, out); err != nil {
		return pageResult{}, err
	}

	now := time.Now().UTC()
	if b.Manifest != nil {
		rec := PageRecord{
			Output:   outputPath,
			Content:  contentPath,
			Template: templatePath,
			Checksum: sum,
			BuiltAt:  now,
		}
		if err := b.Manifest.Record(rec); err != nil {
			return pageResult{}, fmt.Errorf("sitegen: record %s: %w", outputPath, err)
		}
	}
	b.logger.Info("page generated", "output", outputPath)
	return pageResult{status: pageGenerated, builtAt: now}, nil
}

// outputMode is the permission given to newly written output files.
const outputMode fs.FileMode = 0o644

func writeOutput(path, out string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sitegen: create output dir: %w", err)
	}
	// atomic.WriteFile keeps the mode of an existing file but creates new
	// ones owner-only.
	existed := fileExists(path)
	if err := atomic.WriteFile(path, strings.NewReader(out)); err != nil {
		return fmt.Errorf("sitegen: write %s: %w", path, err)
	}
	if !existed {
		if err := os.Chmod(path, outputMode); err != nil {
			return fmt.Errorf("sitegen: chmod %s: %w", path, err)
		}
	}
	return nil
}

func checksum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// GeneratePage renders one page with a default Builder. See
// Builder.GeneratePage.
func GeneratePage(contentPath, templatePath, outputPath string, cfg PageConfig) (bool, error) {
	return New(SiteConfig{}).GeneratePage(contentPath, templatePath, outputPath, cfg)
}
