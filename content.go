package sitegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eringen/sitegen/markdown"
)

// MarkdownBodyKey is the field holding the rendered body of a Markdown
// content document.
const MarkdownBodyKey = "content"

// LoadContent reads and parses a content document. The format follows the
// file extension: .yaml/.yml, .md/.markdown (front matter plus body) or
// JSON for anything else. A missing file is logged and yields nil with a nil
// error.
func (b *Builder) LoadContent(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("content file not found", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("sitegen: read content %s: %w", path, err)
	}
	v, err := ParseContent(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("sitegen: parse content %s: %w", path, err)
	}
	return v, nil
}

// LoadContent reads a content document with a default Builder.
func LoadContent(path string) (any, error) {
	return New(SiteConfig{}).LoadContent(path)
}

// ParseContent decodes a content document in the format named by ext.
// Objects decode to map[string]any and arrays to []any.
func ParseContent(data []byte, ext string) (any, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return normalize(v), nil
	case ".md", ".markdown":
		doc, err := markdown.Render(data, MarkdownBodyKey)
		if err != nil {
			return nil, err
		}
		return normalize(doc), nil
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// normalize converts maps with non-string keys, as produced by some YAML
// decoders for nested mappings, into map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	}
	return v
}
